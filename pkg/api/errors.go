package api

import "errors"

var (
	// ErrInvalidState is returned when an operation is invoked outside its
	// contract, e.g. confirming an empty selection or answering a completed
	// session. The session is left untouched.
	ErrInvalidState = errors.New("invalid session state")

	// ErrInvalidAnswer is returned when an answer does not fit the question:
	// wrong shape for the question type or an unknown option value.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrNoQuestions is returned when the catalog yields no active questions.
	ErrNoQuestions = errors.New("no questions available")

	// ErrInvalidCatalog is returned when a catalog document fails validation.
	ErrInvalidCatalog = errors.New("invalid question catalog")

	// ErrStorage wraps failures of the durable session backend.
	ErrStorage = errors.New("session storage error")

	// ErrSchemaVersionMismatch marks a stored record written by another
	// schema version. Such records are discarded, never migrated.
	ErrSchemaVersionMismatch = errors.New("session schema version mismatch")
)
