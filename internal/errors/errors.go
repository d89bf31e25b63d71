package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the type of error
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrInvalidInput
	// ErrInvalidTransition is a lifecycle guard rejection (zero rows on a conditional update)
	ErrInvalidTransition
	// ErrNotEligible means the caller has no unit that may currently cast a ballot
	ErrNotEligible
	// ErrDuplicateVote is only produced when duplicate ballots are configured to be rejected
	ErrDuplicateVote
	// ErrIntegrity is a hash verification failure
	ErrIntegrity
)

var kindNames = map[Kind]string{
	ErrInternal:          "internal",
	ErrNotFound:          "not_found",
	ErrValidation:        "validation",
	ErrConflict:          "conflict",
	ErrInvalidInput:      "invalid_input",
	ErrInvalidTransition: "invalid_transition",
	ErrNotEligible:       "not_eligible",
	ErrDuplicateVote:     "duplicate_vote",
	ErrIntegrity:         "integrity",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is an application-level error with a kind for classification
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Constructor functions for common error types

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

func InvalidInputf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransitionf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func NotEligible(msg string) *Error {
	return &Error{Kind: ErrNotEligible, Message: msg}
}

func DuplicateVote(msg string) *Error {
	return &Error{Kind: ErrDuplicateVote, Message: msg}
}

func Integrityf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrIntegrity, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or ErrInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// IsKind reports whether err carries an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}

// IsDomain reports whether err is a classified domain error rather than an
// opaque infrastructure failure.
func IsDomain(err error) bool {
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.Kind != ErrInternal
}
