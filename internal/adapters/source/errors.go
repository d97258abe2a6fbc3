package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrLiveUnavailable = errors.New("live asset feed unavailable")
	ErrFixtureFormat   = errors.New("unrecognized fixture format")
)
