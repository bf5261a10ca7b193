// Package ssaerr implements the three-kind error taxonomy of spec
// section 7: programmer-bug (fatal, panics), arithmetic (recoverable,
// returned), and structural (recoverable at a pass boundary,
// returned, supports aggregating more than one problem via
// go.uber.org/multierr — grounded on kubernetes-kubernetes's vendored
// go.uber.org/multierr, adopted here because the teacher itself
// carries no error-aggregation dependency at all).
package ssaerr

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// FatalError is the payload of a panic raised for a violated
// invariant the core refuses to recover from (inserting after a
// terminator, phi arity mismatch, a stale handle, pool exhaustion).
// It is never returned as a normal error value; see Fatal.
type FatalError struct {
	Site   string
	Detail string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("BUG at %s: %s", e.Site, e.Detail)
}

// Fatal panics with a *FatalError identifying the violation site. Call
// sites name the site as "<package>.<operation>", e.g.
// "ir.PushJump after terminator".
func Fatal(site, detail string) {
	panic(&FatalError{Site: site, Detail: detail})
}

// Fatalf is Fatal with a formatted detail message.
func Fatalf(site, format string, args ...any) {
	Fatal(site, fmt.Sprintf(format, args...))
}

// ArithmeticError is returned (never panicked) by constant folding
// when a shift amount is out of range or negative. The IR is left
// unchanged at the offending instruction; earlier foldings in the
// same pass are retained (spec section 7).
type ArithmeticError struct {
	Op     string
	Detail string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error folding %s: %s", e.Op, e.Detail)
}

// NewArithmetic constructs an ArithmeticError.
func NewArithmetic(op, detail string) *ArithmeticError {
	return &ArithmeticError{Op: op, Detail: detail}
}

// VerificationError is returned by inlining when a call site's
// arguments or result type fail to match the callee's signature. It
// can carry more than one mismatch at once via multierr, so a single
// verification pass reports every problem instead of only the first.
type VerificationError struct {
	err error
}

func (e *VerificationError) Error() string { return e.err.Error() }

// Unwrap lets errors.Is/errors.As see through to the combined
// mismatches.
func (e *VerificationError) Unwrap() error { return e.err }

// NewVerification combines one or more problems into a single
// VerificationError, or returns a nil *VerificationError if problems
// is empty. A nil *VerificationError stored in an error interface is
// not a nil error, so callers whose result type is error return nil
// themselves when the problem list is empty.
func NewVerification(problems ...error) *VerificationError {
	combined := multierr.Combine(problems...)
	if combined == nil {
		return nil
	}
	return &VerificationError{err: combined}
}

// Problemf builds one problem to later pass to NewVerification.
func Problemf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// IsRecoverable reports whether err is one of the two error kinds
// spec section 7 classifies as "recoverable" (ArithmeticError,
// VerificationError) rather than an unexpected failure — used at pass
// boundaries (internal/pipeline.Pipeline.Run) to decide whether to
// log at warn or at error level.
func IsRecoverable(err error) bool {
	var arith *ArithmeticError
	var verif *VerificationError
	return errors.As(err, &arith) || errors.As(err, &verif)
}
