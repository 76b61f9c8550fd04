package seekpager

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSecretKey is returned by every signer and codec call when no
	// secret key is configured.
	ErrNoSecretKey = errors.New("no secret key is defined")

	// ErrNotSingleRecord is returned by single-record operations invoked on a
	// window whose page size is not one.
	ErrNotSingleRecord = errors.New("operation requires a page size of one")

	// ErrInvalidCursor matches every *InvalidCursorError via errors.Is.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// InvalidCursorReason classifies an invalid cursor.
type InvalidCursorReason string

const (
	// ReasonType means the position is neither empty, a token, a record nor a cursor.
	ReasonType InvalidCursorReason = "type"
	// ReasonMismatch means entity, query fingerprint or page size differ.
	ReasonMismatch InvalidCursorReason = "mismatch"
	// ReasonDecode means the token failed to decode or authenticate.
	ReasonDecode InvalidCursorReason = "decode"
	// ReasonAnchor means an anchor row of the cursor no longer exists.
	ReasonAnchor InvalidCursorReason = "anchor"
)

// InvalidCursorError carries the offending token, record or cursor.
type InvalidCursorError struct {
	Reason InvalidCursorReason
	Cursor any
	Err    error
}

func newInvalidCursorError(reason InvalidCursorReason, cursor any, err error) *InvalidCursorError {
	return &InvalidCursorError{Reason: reason, Cursor: cursor, Err: err}
}

func (e *InvalidCursorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid cursor (%s): %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("invalid cursor (%s)", e.Reason)
}

func (e *InvalidCursorError) Unwrap() error {
	return e.Err
}

func (e *InvalidCursorError) Is(target error) bool {
	return target == ErrInvalidCursor
}
