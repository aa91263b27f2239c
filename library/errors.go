package library

import "errors"

// Engine failures are sentinel errors so callers can branch with errors.Is.
// Every failed operation is a no-op on the in-memory state.
var (
	ErrInvalidTitle         = errors.New("book title contains invalid characters")
	ErrInvalidName          = errors.New("user name contains invalid characters")
	ErrDuplicateTitle       = errors.New("a book with this title already exists")
	ErrDuplicateUser        = errors.New("a user with this name is already registered")
	ErrUserNotFound         = errors.New("user not found")
	ErrBookNotFound         = errors.New("book not found")
	ErrBookUnavailable      = errors.New("book is not available")
	ErrInvalidReturn        = errors.New("book is not borrowed by this user")
	ErrBookNotReservable    = errors.New("book is currently available or does not exist")
	ErrDuplicateReservation = errors.New("book is already reserved by this user")
	ErrNoReservation        = errors.New("no active reservation for this book")

	// ErrCorruptData wraps decode failures of a persisted snapshot. The
	// engine recovers from it by starting with empty collections.
	ErrCorruptData = errors.New("library data is corrupt")
)

func isCorrupt(err error) bool { return errors.Is(err, ErrCorruptData) }
