package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Services wrap these with fmt.Errorf("%w: ...") and the API layer uses
// errors.Is() to map them to HTTP responses or stream error events.

var (
	// ErrValidation signifies that input data provided by a client failed
	// business rule validation.
	// This is mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation could not be completed because
	// it conflicts with the current state of a resource, e.g. a second
	// question submitted while an answer is still streaming.
	// This is mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrConfiguration signifies that the selected model label is not part of
	// the model table. No turn is recorded and the backend is not contacted.
	// This is mapped to a 400 Bad Request HTTP status.
	ErrConfiguration = errors.New("unknown model selection")

	// ErrBackendUnavailable signifies that the inference backend could not be
	// reached, or failed before producing a single fragment.
	// It is reported as an error event on the answer stream.
	ErrBackendUnavailable = errors.New("model backend unavailable")

	// ErrStreamInterrupted signifies that the backend failed after some
	// fragments were already delivered. The partial answer is never recorded.
	// It is reported as an error event on the answer stream.
	ErrStreamInterrupted = errors.New("model response interrupted")
)
