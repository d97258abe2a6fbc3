// Package telemetry holds sensor readings kept in per-asset rolling windows.
package telemetry

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ErrInvalidSample is returned by Validate.
var ErrInvalidSample = errors.New("invalid sample")

// Sample is one reading for one metric (water level, flow rate, TDS, pH, temperature).
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
}

// Validate normalizes the metric name, stamps a zero timestamp with now and
// rejects unnamed or non-finite readings.
func (s *Sample) Validate(now time.Time) error {
	s.Metric = strings.ToLower(strings.TrimSpace(s.Metric))
	if s.Metric == "" {
		return errors.Join(ErrInvalidSample, errors.New("metric is required"))
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return errors.Join(ErrInvalidSample, errors.New("value must be finite"))
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = now
	}
	return nil
}
