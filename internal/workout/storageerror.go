package workout

import (
	"strings"

	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/mattn/go-sqlite3"
)

// StorageErrorKind is the category of a storage failure.
type StorageErrorKind int

const (
	StorageErrorUnknown StorageErrorKind = iota
	StorageErrorPermission
	StorageErrorMissingSchema
	StorageErrorDuplicate
	StorageErrorForeignKey
	StorageErrorConstraint
)

func (k StorageErrorKind) String() string {
	switch k {
	case StorageErrorPermission:
		return "permission"
	case StorageErrorMissingSchema:
		return "missing_schema"
	case StorageErrorDuplicate:
		return "duplicate"
	case StorageErrorForeignKey:
		return "foreign_key"
	case StorageErrorConstraint:
		return "constraint"
	case StorageErrorUnknown:
	}
	return "unknown"
}

// StorageError is a classified storage failure. Error includes the driver message and is meant for logs, end
// users get [StorageError.UserMessage].
type StorageError struct {
	Kind StorageErrorKind
	// Message is shown to end users for unknown failures.
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// UserMessage is a generic description that doesn't leak storage internals.
func (e *StorageError) UserMessage() string {
	switch e.Kind {
	case StorageErrorPermission:
		return "You do not have permission to perform this action."
	case StorageErrorMissingSchema:
		return "Storage is not initialised. Please ensure database migrations are applied."
	case StorageErrorDuplicate:
		return "Duplicate entry."
	case StorageErrorForeignKey:
		return "Invalid reference."
	case StorageErrorConstraint:
		return "Data validation failed."
	case StorageErrorUnknown:
	}
	return e.Message
}

// ClassifyStorageError wraps err in a [*StorageError] with fallback as the message for unknown failures.
// SQLite result codes take precedence, the error text is only consulted when the code is inconclusive.
func ClassifyStorageError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var already *StorageError
	if errors.As(err, &already) {
		return err
	}
	return &StorageError{Kind: classify(err), Message: fallback, Err: err}
}

func classify(err error) StorageErrorKind {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if kind, ok := kindFromCode(sqliteErr); ok {
			return kind
		}
	}
	return kindFromText(err.Error())
}

func kindFromCode(err sqlite3.Error) (StorageErrorKind, bool) {
	switch err.ExtendedCode { //nolint:exhaustive // the rest falls back to the primary code
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return StorageErrorDuplicate, true
	case sqlite3.ErrConstraintForeignKey:
		return StorageErrorForeignKey, true
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		return StorageErrorConstraint, true
	}
	switch err.Code { //nolint:exhaustive // generic codes carry their meaning in the text
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return StorageErrorPermission, true
	case sqlite3.ErrConstraint:
		return StorageErrorConstraint, true
	}
	return StorageErrorUnknown, false
}

//nolint:gochecknoglobals // lookup table
var textKinds = []struct {
	substring string
	kind      StorageErrorKind
}{
	{"permission denied", StorageErrorPermission},
	{"row-level security", StorageErrorPermission},
	{"no such table", StorageErrorMissingSchema},
	{"no such column", StorageErrorMissingSchema},
	{"does not exist", StorageErrorMissingSchema},
	{"duplicate", StorageErrorDuplicate},
	{"unique", StorageErrorDuplicate},
	{"foreign key", StorageErrorForeignKey},
	{"violates", StorageErrorConstraint},
	{"constraint", StorageErrorConstraint},
}

func kindFromText(msg string) StorageErrorKind {
	msg = strings.ToLower(msg)
	for _, k := range textKinds {
		if strings.Contains(msg, k.substring) {
			return k.kind
		}
	}
	return StorageErrorUnknown
}

// UserMessage returns what end users may see for err. Input errors carry their own message, storage errors map
// to a generic one and anything else becomes fallback. With debug set the raw error text is shown instead of
// generic messages.
func UserMessage(err error, fallback string, debug bool) string {
	var input *InputError
	if errors.As(err, &input) {
		return input.Message
	}
	if debug && err != nil {
		return err.Error()
	}
	var storage *StorageError
	if errors.As(err, &storage) {
		return storage.UserMessage()
	}
	return fallback
}
