package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the acting user may not perform a mutation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidDictValue marks a QC type or QC state name that is not in the dictionary.
	ErrInvalidDictValue = errors.New("invalid dictionary value")
	// ErrInconsistentInput marks individually valid values that contradict each other.
	ErrInconsistentInput = errors.New("inconsistent input")
	// ErrAlreadyClaimed is returned when a QC state already exists for a product and QC type.
	ErrAlreadyClaimed = errors.New("already claimed")
	// ErrUnclaimed is returned when a QC state is updated before it was claimed.
	ErrUnclaimed = errors.New("unclaimed")
	// ErrRunNotFound is returned when the tracking store has no wells for a run.
	ErrRunNotFound = errors.New("run not found")
	// ErrEmptyInput is returned for empty lists where at least one value is required.
	ErrEmptyInput = errors.New("empty input")
)

// Kind names a category of the taxonomy. Values are stable and safe to expose.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindInvalidArgument   Kind = "invalid_argument"
	KindInvalidDictValue  Kind = "invalid_dict_value"
	KindInconsistentInput Kind = "inconsistent_input"
	KindAlreadyClaimed    Kind = "already_claimed"
	KindUnclaimed         Kind = "unclaimed"
	KindRunNotFound       Kind = "run_not_found"
	KindEmptyInput        Kind = "empty_input"
)

var sentinels = map[Kind]error{
	KindNotFound:          ErrNotFound,
	KindUnauthorized:      ErrUnauthorized,
	KindInvalidArgument:   ErrInvalidArgument,
	KindInvalidDictValue:  ErrInvalidDictValue,
	KindInconsistentInput: ErrInconsistentInput,
	KindAlreadyClaimed:    ErrAlreadyClaimed,
	KindUnclaimed:         ErrUnclaimed,
	KindRunNotFound:       ErrRunNotFound,
	KindEmptyInput:        ErrEmptyInput,
}

// Error is a recoverable, user-facing failure. Field and Value are set when
// the failure can be attributed to a single input value.
type Error struct {
	Kind    Kind
	Field   string
	Value   string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Unwrap exposes the sentinel so callers can use errors.Is.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return sentinels[e.Kind]
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidDictValue(field, value string) *Error {
	return &Error{
		Kind:    KindInvalidDictValue,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("%s '%s' is invalid", field, value),
	}
}

func InconsistentInput(format string, args ...any) *Error {
	return New(KindInconsistentInput, format, args...)
}

func AlreadyClaimed(idProduct, qcType string) *Error {
	return &Error{
		Kind:    KindAlreadyClaimed,
		Field:   "id_product",
		Value:   idProduct,
		Message: fmt.Sprintf("QC state of type '%s' for product %s has already been claimed", qcType, idProduct),
	}
}

func Unclaimed(idProduct, qcType string) *Error {
	return &Error{
		Kind:    KindUnclaimed,
		Field:   "id_product",
		Value:   idProduct,
		Message: fmt.Sprintf("cannot update a product with no prior claim: QC type '%s', product %s", qcType, idProduct),
	}
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, format, args...)
}

func RunNotFound(runName string) *Error {
	return &Error{
		Kind:    KindRunNotFound,
		Field:   "run_name",
		Value:   runName,
		Message: fmt.Sprintf("no wells found for run '%s'", runName),
	}
}

func EmptyInput(field string) *Error {
	return &Error{
		Kind:    KindEmptyInput,
		Field:   field,
		Message: fmt.Sprintf("%s cannot be empty", field),
	}
}

func InvalidArgument(field, value, reason string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("invalid %s '%s': %s", field, value, reason),
	}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// KindOf returns the taxonomy kind of err, or "" for internal failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsUserFacing reports whether err belongs to the taxonomy and its message
// may be shown to the caller verbatim.
func IsUserFacing(err error) bool {
	return KindOf(err) != ""
}
