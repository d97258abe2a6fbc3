// Package filterfsm tracks the phase of a filter or search operation so that
// callers can tell "in progress", "no results" and "failed" apart. It does
// not run the filter itself.
package filterfsm

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownEvent is returned by ParseEvent for names outside the event set.
var ErrUnknownEvent = errors.New("unknown filter event")

// State is the current phase.
type State int

// States. Idle is the zero value and the initial state.
const (
	Idle State = iota
	Filtering
	Empty
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Filtering:
		return "FILTERING"
	case Empty:
		return "EMPTY"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state name, so JSON carries "IDLE" rather than 0.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Event drives transitions.
type Event int

// Events.
const (
	Start Event = iota
	Success
	NoResults
	Fail
	Retry
	Reset
)

var eventNames = [...]string{"START", "SUCCESS", "NO_RESULTS", "FAIL", "RETRY", "RESET"}

func (e Event) String() string {
	if int(e) >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// ParseEvent accepts START, SUCCESS, NO_RESULTS, FAIL, RETRY and RESET in any case.
func ParseEvent(name string) (Event, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, en := range eventNames {
		if n == en {
			return Event(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

type edge struct {
	from State
	on   Event
}

var transitions = map[edge]State{
	{Idle, Start}:          Filtering,
	{Filtering, Success}:   Idle,
	{Filtering, NoResults}: Empty,
	{Filtering, Fail}:      Error,
	{Empty, Reset}:         Idle,
	{Empty, Start}:         Filtering,
	{Error, Retry}:         Filtering,
	{Error, Reset}:         Idle,
}

// Next returns the state reached from s on e, and false when the pair is not
// in the table (the state is then unchanged).
func Next(s State, e Event) (State, bool) {
	to, ok := transitions[edge{s, e}]
	if !ok {
		return s, false
	}
	return to, true
}

// Machine is a long-lived, cycling filter state machine.
type Machine struct {
	mu      sync.Mutex
	state   State
	observe func(from, to State, e Event, applied bool)
}

// Option configures a Machine.
type Option func(*Machine)

// WithObserver registers a callback invoked after every Transition call,
// including ignored events. It runs with the machine's lock held and must not
// call back into the machine.
func WithObserver(fn func(from, to State, e Event, applied bool)) Option {
	return func(m *Machine) {
		m.observe = fn
	}
}

// New returns a machine in Idle.
func New(opts ...Option) *Machine {
	m := &Machine{state: Idle}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the result of the last applied transition.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transition applies e. Events not valid in the current state are no-ops and
// return false.
func (m *Machine) Transition(e Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state
	to, ok := Next(from, e)
	m.state = to
	if m.observe != nil {
		m.observe(from, to, e, ok)
	}
	return ok
}
