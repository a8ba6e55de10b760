// Package errs defines the typed error kinds shared across the dataset
// parsers and the transmit device stack. Every non-panicking failure path
// in this module returns one of these kinds wrapped around an underlying
// cause, so callers can branch with errors.Is/As instead of string matching.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which of the closed set of failure categories an error
// belongs to.
type Kind int

const (
	// InputFormat covers unexpected tokens or shapes encountered while
	// parsing a dataset file. The Dataset Store is left untouched.
	InputFormat Kind = iota

	// ResourceExhausted covers allocation failures, most notably the
	// hierarchical-scientific parser's per-modulation slab read.
	ResourceExhausted

	// DeviceMissing covers a required PHY, streaming sub-device, or
	// channel absent from a transport context.
	DeviceMissing

	// AttributeIO covers an attribute read or write that failed at the
	// transport layer.
	AttributeIO

	// OutOfRange covers a setter argument outside the cached range; no
	// hardware call is attempted.
	OutOfRange

	// DuplicateAlias is the only fatal kind: the modulation alias table
	// is inconsistent at process init.
	DuplicateAlias
)

func (k Kind) String() string {
	switch k {
	case InputFormat:
		return "InputFormat"
	case ResourceExhausted:
		return "ResourceExhausted"
	case DeviceMissing:
		return "DeviceMissing"
	case AttributeIO:
		return "AttributeIO"
	case OutOfRange:
		return "OutOfRange"
	case DuplicateAlias:
		return "DuplicateAlias"
	default:
		return "Unknown"
	}
}

// Error is the concrete typed error carried through the system. Op names
// the operation that failed (e.g. "tuple parse", "variant.initialize");
// Err is the wrapped underlying cause, which may be nil.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind with no wrapped cause.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap builds an *Error of the given kind wrapping err. Wrap returns nil
// if err is nil, so it is safe to use as `return errs.Wrap(Kind, op, err)`
// at the end of a function.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
