package domain

import "errors"

var (
	// ErrDuplicateName is returned when a unique name (username, category,
	// exercise) is already taken.
	ErrDuplicateName = errors.New("name already exists")

	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials covers both unknown username and wrong password;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput marks a request rejected before touching storage,
	// typically a missing or malformed field.
	ErrInvalidInput = errors.New("invalid input")

	ErrMissingBodyweight = errors.New("body weight is not set in profile")
	ErrInvalidReps       = errors.New("reps must be at least 1")
	ErrInvalidRPE        = errors.New("rpe must be between 0 and 10")
	ErrNegativeWeight    = errors.New("weight must not be negative")
	ErrEmptyLogbook      = errors.New("no sets to save")
	ErrNoSessionSelected = errors.New("no session selected")
)
