package telemetry

import "errors"

var (
	// ErrNotFound is returned when the referenced device does not exist.
	ErrNotFound = errors.New("device not found")

	// ErrStorage wraps any failure of the underlying database.
	ErrStorage = errors.New("storage failure")

	// ErrInvalidTimeframe is returned for a timeframe other than hour, day, or month.
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)
