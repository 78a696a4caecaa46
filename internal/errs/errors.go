package errs

import "errors"

// Sentinel errors shared by the store, service and HTTP layers.
var (
	ErrNotFound = errors.New("not_found")
	// ErrAlreadyExists signals a username collision on create or update.
	ErrAlreadyExists = errors.New("already_exists")
	// ErrCreateFailed means no free identifier was found within the retry bound.
	ErrCreateFailed = errors.New("create_failed")
	ErrInvalid      = errors.New("invalid")
	// ErrCorruptDocument is returned when the backing document cannot be decoded
	// or violates the record schema.
	ErrCorruptDocument = errors.New("corrupt_document")
)
