package model

import "errors"

var (
	// ErrInsufficientData means the history is too short to compute a result.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUndefinedHorizon means a goal cannot be reached on the current trend.
	ErrUndefinedHorizon = errors.New("undefined horizon")
	// ErrMalformedInput marks a caller contract violation.
	ErrMalformedInput = errors.New("malformed input")
	// ErrDetectorUnavailable means an anomaly detector cannot run on the input.
	ErrDetectorUnavailable = errors.New("detector unavailable")
)
