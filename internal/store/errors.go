package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// CodeNotInitialized indicates an operation on a handle that is not open.
	CodeNotInitialized ErrorCode = "NOT_INITIALIZED"

	// CodeSchemaTooNew indicates the stored compatibility floor is above
	// CurrentVersion. The store refuses to load.
	CodeSchemaTooNew ErrorCode = "SCHEMA_TOO_NEW"

	// CodeWriteFailed indicates the underlying write was rejected.
	CodeWriteFailed ErrorCode = "WRITE_FAILED"

	// CodeNotFound indicates a lookup miss.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeMigrationStepFailed indicates one migration step failed and was
	// rolled back. Open still succeeds.
	CodeMigrationStepFailed ErrorCode = "MIGRATION_STEP_FAILED"

	// CodeTransactionOpen indicates an operation that needs no open
	// transaction was called while one is open.
	CodeTransactionOpen ErrorCode = "TRANSACTION_OPEN"

	// CodeInvalidRecord indicates a record failed validation before any write.
	CodeInvalidRecord ErrorCode = "INVALID_RECORD"
)

// Error is returned by store operations.
//
// Errors compare equal under errors.Is when their codes match, so callers
// test against the sentinels below.
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

// Sentinels for errors.Is.
var (
	ErrNotInitialized      = &Error{Code: CodeNotInitialized}
	ErrSchemaTooNew        = &Error{Code: CodeSchemaTooNew}
	ErrWriteFailed         = &Error{Code: CodeWriteFailed}
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrMigrationStepFailed = &Error{Code: CodeMigrationStepFailed}
	ErrTransactionOpen     = &Error{Code: CodeTransactionOpen}
	ErrInvalidRecord       = &Error{Code: CodeInvalidRecord}
)

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notInitialized(op string) error {
	return &Error{Code: CodeNotInitialized, Op: op}
}

func writeFailed(op string, err error) error {
	return &Error{Code: CodeWriteFailed, Op: op, Err: err}
}

func notFound(op string) error {
	return &Error{Code: CodeNotFound, Op: op}
}

func invalidRecord(op string, err error) error {
	return &Error{Code: CodeInvalidRecord, Op: op, Err: err}
}

// IsSchemaTooNew reports whether err is a refusal to open a newer store.
func IsSchemaTooNew(err error) bool {
	return errors.Is(err, ErrSchemaTooNew)
}
