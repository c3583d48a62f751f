// Package cterr defines the error taxonomy shared by ctmpi and pkcs1:
// bad input, invalid padding, output too large, and allocation
// failure. The shape mirrors the teacher's parser.Error /
// encoder.EncodingError: a Kind enum plus an Error struct that wraps an
// optional underlying error.
package cterr

import (
	"errors"
	"fmt"
)

// Kind categorizes the family a constant-time error belongs to.
type Kind int

const (
	// KindBadInput marks a public-precondition violation: mismatched
	// limb counts, nil pointers, lengths that don't fit. The violation
	// itself is never secret.
	KindBadInput Kind = iota
	// KindInvalidPadding marks a PKCS#1 v1.5 unpadding failure. All
	// sub-reasons (leading byte wrong, block-type wrong, no separator,
	// PS too short) fold into this single kind so the error carries no
	// trace of which check failed.
	KindInvalidPadding
	// KindOutputTooLarge marks a plaintext that would not fit in the
	// caller's output buffer.
	KindOutputTooLarge
	// KindAllocation marks a failure propagated from the big-integer
	// collaborator's Grow.
	KindAllocation
)

func (k Kind) String() string {
	switch k {
	case KindBadInput:
		return "bad input"
	case KindInvalidPadding:
		return "invalid padding"
	case KindOutputTooLarge:
		return "output too large"
	case KindAllocation:
		return "allocation failure"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this module's packages.
type Error struct {
	Kind    Kind
	Op      string // operation that produced the error, e.g. "pkcs1.Unpad"
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap supports errors.Is / errors.As against the Wrapped cause and
// against the sentinels below, via Is.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is lets errors.Is(err, ErrInvalidPadding) (etc.) succeed against any
// *Error carrying that Kind, without requiring identical instances.
func (e *Error) Is(target error) bool {
	sentinel, ok := target.(*Error)
	if !ok {
		return false
	}
	return sentinel.Kind == e.Kind && sentinel.Op == ""
}

// Sentinels for errors.Is comparisons. They carry no Op so Is matches
// purely on Kind.
var (
	ErrBadInput       = &Error{Kind: KindBadInput}
	ErrInvalidPadding = &Error{Kind: KindInvalidPadding}
	ErrOutputTooLarge = &Error{Kind: KindOutputTooLarge}
	ErrAllocation     = &Error{Kind: KindAllocation}
)

// New creates an *Error of the given kind for the named operation.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap creates an *Error of the given kind for the named operation,
// wrapping an underlying cause (e.g. the collaborator's Grow failure).
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Wrapped: cause}
}

// IsPaddingOracle reports whether err is either KindInvalidPadding or
// KindOutputTooLarge — the two outcomes a caller (e.g. a TLS record
// layer) must treat identically to avoid a Bleichenbacher-style oracle.
// This is the one place that folding logic lives instead of being
// re-derived at every call site.
func IsPaddingOracle(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindInvalidPadding || e.Kind == KindOutputTooLarge
}
