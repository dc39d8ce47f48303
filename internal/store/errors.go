package store

import "errors"

var (
	// ErrEmailTaken is returned when registration collides with an existing
	// account email (comparison is case-insensitive).
	ErrEmailTaken = errors.New("email already registered")

	// ErrNameTaken is returned when a subject with the same name exists.
	ErrNameTaken = errors.New("subject name already exists")
)
