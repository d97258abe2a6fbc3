package reconcile

import "errors"

// Sentinel kinds for reconcile errors.
var (
	// ErrUnreadablePayload means the request itself could not be interpreted;
	// individual malformed rows never produce it.
	ErrUnreadablePayload = errors.New("unreadable sync payload")
)
