package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/userstats/internal/ir"
)

// Code categorizes operation failures. Codes are stable and surface
// verbatim in CLI output and scenario traces.
type Code string

const (
	// CodeAddressMismatch: the supplied address is not the caller's derived address.
	CodeAddressMismatch Code = "AddressMismatch"

	// CodeNameTooLong: the name exceeds ir.MaxNameLen bytes.
	CodeNameTooLong Code = "NameTooLong"

	// CodeAlreadyExists: a record is already stored at the address.
	CodeAlreadyExists Code = "AlreadyExists"

	// CodeNotFound: no record is stored at the address.
	CodeNotFound Code = "NotFound"

	// CodeDerivationExhausted: no address could be derived for the owner,
	// either because every bump was on-curve or the seeds were rejected.
	CodeDerivationExhausted Code = "DerivationExhausted"

	// CodeStorageFailure: the backend failed for a reason other than the above.
	CodeStorageFailure Code = "StorageFailure"
)

// Sentinels for errors.Is. They match any *Error with the same Code.
var (
	ErrAddressMismatch     = &Error{Code: CodeAddressMismatch}
	ErrNameTooLong         = &Error{Code: CodeNameTooLong}
	ErrAlreadyExists       = &Error{Code: CodeAlreadyExists}
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrDerivationExhausted = &Error{Code: CodeDerivationExhausted}
	ErrStorageFailure      = &Error{Code: CodeStorageFailure}
)

// Error is returned by every failed engine operation.
// State is unchanged whenever an Error is returned.
type Error struct {
	// Code identifies the failure.
	Code Code

	// Message is a human-readable description.
	Message string

	// Address is the address the operation targeted.
	Address ir.Address

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Address != (ir.Address{}) {
		msg = fmt.Sprintf("%s (address=%s)", msg, e.Address)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the Code carried by err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code Code, addr ir.Address, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Address: addr,
		Err:     cause,
	}
}
