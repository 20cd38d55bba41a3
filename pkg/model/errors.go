package model

import "errors"

var (
	// ErrNotFound is returned for unknown events, sessions, drivers or laps.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for malformed or empty telemetry and mismatched
	// comparison inputs.
	ErrInvalid = errors.New("invalid input")
	// ErrProvider wraps transport and status failures of the data provider.
	ErrProvider = errors.New("provider error")
)
