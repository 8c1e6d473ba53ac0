package codegraph

import (
	"fmt"
	"time"
)

// Kind names one of the error taxonomy entries in spec.md §7. It is a
// string, not a class hierarchy, so callers can log or compare it
// directly without a type switch.
type Kind string

const (
	KindNotInitialized          Kind = "not_initialized"
	KindAlreadyInitialized      Kind = "already_initialized"
	KindLockBusy                Kind = "lock_busy"
	KindFileTooLarge            Kind = "file_too_large"
	KindFileUnreadable          Kind = "file_unreadable"
	KindParseError              Kind = "parse_error"
	KindMigrationFailed         Kind = "migration_failed"
	KindResolutionIndeterminate Kind = "resolution_indeterminate"
	KindCancelled               Kind = "cancelled"
	KindStoreCorrupt            Kind = "store_corrupt"
)

// Error wraps an underlying error with the taxonomy Kind and enough
// context to log or report it, grounded on standardbeagle-lci's
// internal/errors.IndexingError/ParseError shape (a typed struct per
// error class, an Operation/context field, a Timestamp, and an Unwrap
// back to the underlying cause) generalized into one struct parameterized
// by Kind instead of one Go type per taxonomy entry, since spec.md §7
// names the taxonomy as "kinds, not class names".
type Error struct {
	Kind       Kind
	Operation  string
	Path       string // file or project root, when applicable
	Underlying error
	Timestamp  time.Time
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Operation: op, Path: path, Underlying: err, Timestamp: time.Now()}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("codegraph: %s: %s (%s): %v", e.Kind, e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("codegraph: %s: %s: %v", e.Kind, e.Operation, e.Underlying)
}

// Unwrap returns the underlying cause, for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is an *Error of the same Kind, so
// errors.Is(err, ErrNotInitialized) matches any NotInitialized error without
// a type assertion. A bare Kind is not an error and cannot be passed to
// errors.Is; callers compare via errors.As(err, &codeErr) and inspect
// codeErr.Kind, or use the Is* helpers below.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// IsNotInitialized reports whether err is, or wraps, a NotInitialized error.
func IsNotInitialized(err error) bool { return hasKind(err, KindNotInitialized) }

// IsAlreadyInitialized reports whether err is, or wraps, an AlreadyInitialized error.
func IsAlreadyInitialized(err error) bool { return hasKind(err, KindAlreadyInitialized) }

// IsLockBusy reports whether err is, or wraps, a LockBusy error.
func IsLockBusy(err error) bool { return hasKind(err, KindLockBusy) }

// IsStoreCorrupt reports whether err is, or wraps, a StoreCorrupt error.
func IsStoreCorrupt(err error) bool { return hasKind(err, KindStoreCorrupt) }

// IsMigrationFailed reports whether err is, or wraps, a MigrationFailed error.
func IsMigrationFailed(err error) bool { return hasKind(err, KindMigrationFailed) }

func hasKind(err error, kind Kind) bool {
	for err != nil {
		if ce, ok := err.(*Error); ok {
			return ce.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
