package loom

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrMalformedLine indicates a wire line that could not be parsed at all.
	// Lines that parse but carry an unknown event type are not errors; they
	// decode to nothing for forward compatibility.
	ErrMalformedLine = errors.New("malformed stream line")

	// ErrAlreadyRunning indicates a task was started while one is in flight.
	ErrAlreadyRunning = errors.New("task already running")

	// ErrTaskNotFound indicates a lookup for an unknown task id.
	ErrTaskNotFound = errors.New("task not found")
)
