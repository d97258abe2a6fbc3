package repository

import "errors"

// Sentinel kinds for snapshot errors.
var (
	ErrNotFound      = errors.New("asset not found")
	ErrInvalidLimit  = errors.New("invalid list limit")
	ErrStaleSnapshot = errors.New("snapshot superseded by a newer sync")
	ErrUnknownTicket = errors.New("unknown sync ticket")
)
