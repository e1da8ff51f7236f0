package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrAlreadyDecided = errors.New("EOT decision already recorded for booking")

	ErrNotEOTCandidate = errors.New("booking has no pending EOT check")

	ErrOverrideUnitMismatch = errors.New("duration override does not match the template unit")
)
