package core

import "errors"

var (
	// ErrNotFound covers a missing subject, topic or account resource.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized covers every authentication failure: bad credentials,
	// no face match, deactivated account. Callers must not distinguish the
	// cause to avoid leaking which check failed.
	ErrUnauthorized = errors.New("authentication failed")

	// ErrGeneration covers an upstream generation failure, including a model
	// response with no parseable payload.
	ErrGeneration = errors.New("question generation failed")
)
