package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrConflict is returned when a conditional write finds a newer revision stored.
	ErrConflict = errors.New("revision conflict")
	// ErrLocked is returned when the sequence policy rejects an operation on a locked section.
	ErrLocked = errors.New("locked")
	// ErrInvalidTransition is returned when a status change is not allowed by the transition table.
	ErrInvalidTransition = errors.New("invalid transition")
)
