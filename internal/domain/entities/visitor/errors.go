package visitor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates an unknown visitor record id.
	ErrNotFound = errors.New("visitor not found")

	// ErrTokenNotFound indicates no record is bound to the presented token.
	ErrTokenNotFound = errors.New("decision token not found")

	// ErrTokenExpired indicates the decision token is past its expiry.
	ErrTokenExpired = errors.New("decision token expired")

	// ErrAlreadyDecided indicates the record has already left the pending
	// state; further decision attempts are no-ops, never mutations.
	ErrAlreadyDecided = errors.New("visitor request already decided")
)

// ValidationError reports the registration fields that were missing or
// unusable. It is surfaced to the caller before any side effects run.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid required fields: %s", strings.Join(e.Fields, ", "))
}

// QREncodingError wraps a failure to build the QR artifact. It is fatal to
// registration: no record is persisted without its QR.
type QREncodingError struct {
	Err error
}

func (e *QREncodingError) Error() string {
	return fmt.Sprintf("qr encoding failed: %v", e.Err)
}

func (e *QREncodingError) Unwrap() error {
	return e.Err
}
