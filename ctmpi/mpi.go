// Package ctmpi implements the constant-time big-integer operations of
// spec.md §4.7: conditional assign, conditional swap, and unsigned/signed
// less-than over multi-limb integers. The operations work on the
// package's own minimal Int view, and the per-limb conditional assign and
// swap are done here with ct.Select. The Collaborator interface declares
// only Grow, which Int implements; arithmetic, allocation, and growth
// policy remain outside this package.
package ctmpi

import (
	"fmt"

	"github.com/lookbusy1344/constant-time-go/ct"
	"github.com/lookbusy1344/constant-time-go/cterr"
)

// Limb is the unit of the big-integer representation: one machine word.
type Limb = uint

// Collaborator is the minimal interface the core requires from the
// big-integer representation it is borrowing. Sizes passed to Grow are
// always non-secret (allowed to leak). It has no conditional assign or
// swap methods: those per-limb operations are done in this package.
type Collaborator interface {
	// Grow ensures the collaborator has at least n limb slots,
	// zero-extending as needed.
	Grow(n int) error
}

// Int is the library's own minimal big-integer view: a sign and an
// ordered (least-significant-first) limb slice. It exists only so
// SafeCondAssign/SafeCondSwap/LTConstantTime have something concrete to
// operate on in this package's tests and in callers that don't already
// own a richer bignum type; a production caller substitutes its own
// representation behind the same field shape.
type Int struct {
	Sign  int // +1 or -1
	Limbs []Limb
}

// Grow extends the limb slice to n entries, zero-extending. It is the
// minimal zero-extending grow the core needs to exercise the contract of
// spec.md §6, not a general-purpose bignum grower — real growth policy
// (capacity doubling, allocation strategy) is the collaborator's job.
func (x *Int) Grow(n int) error {
	if n < 0 {
		return cterr.New(cterr.KindBadInput, "ctmpi.Int.Grow")
	}
	if len(x.Limbs) >= n {
		return nil
	}
	grown := make([]Limb, n)
	copy(grown, x.Limbs)
	x.Limbs = grown
	return nil
}

// SafeCondAssign sets x = y when assign is 1, and leaves x unchanged
// when assign is 0, without the memory-access pattern revealing which
// happened. assign must be exactly 0 or 1. x is grown to len(y.Limbs)
// first (sizes are public); limbs beyond len(y.Limbs) are zeroed under
// the mask rather than left alone, matching mbedtls_mpi_safe_cond_assign's
// zero-extension of the destination.
func SafeCondAssign(x, y *Int, assign uint) error {
	if x == nil || y == nil {
		return cterr.New(cterr.KindBadInput, "ctmpi.SafeCondAssign")
	}
	limbMask := ct.MaskOfBit(Limb(assign))

	if err := x.Grow(len(y.Limbs)); err != nil {
		return cterr.Wrap(cterr.KindAllocation, "ctmpi.SafeCondAssign", err)
	}

	x.Sign = int(ct.Select(assign, uint(y.Sign), uint(x.Sign)))

	for i := range y.Limbs {
		x.Limbs[i] = ct.Select(assign, y.Limbs[i], x.Limbs[i])
	}
	for i := len(y.Limbs); i < len(x.Limbs); i++ {
		x.Limbs[i] &^= limbMask
	}
	return nil
}

// SafeCondSwap exchanges the contents of x and y when swap is 1, and
// leaves both unchanged when swap is 0. Pointer-swapping is deliberately
// not used: it would make the two variables' subsequent memory-access
// patterns distinguishable, defeating the point.
func SafeCondSwap(x, y *Int, swap uint) error {
	if x == nil || y == nil {
		return cterr.New(cterr.KindBadInput, "ctmpi.SafeCondSwap")
	}
	if x == y {
		return nil
	}

	maxLen := len(x.Limbs)
	if len(y.Limbs) > maxLen {
		maxLen = len(y.Limbs)
	}
	if err := x.Grow(maxLen); err != nil {
		return cterr.Wrap(cterr.KindAllocation, "ctmpi.SafeCondSwap", err)
	}
	if err := y.Grow(maxLen); err != nil {
		return cterr.Wrap(cterr.KindAllocation, "ctmpi.SafeCondSwap", err)
	}

	xSign, ySign := uint(x.Sign), uint(y.Sign)
	x.Sign = int(ct.Select(swap, ySign, xSign))
	y.Sign = int(ct.Select(swap, xSign, ySign))

	for i := range x.Limbs {
		a, b := x.Limbs[i], y.Limbs[i]
		x.Limbs[i] = ct.Select(swap, b, a)
		y.Limbs[i] = ct.Select(swap, a, b)
	}
	return nil
}

// CoreLTConstantTime returns 1 if a < b, interpreting both as unsigned
// len(a)-limb integers stored least significant limb first (the same
// order as Int.Limbs), so a[len(a)-1] is the most significant limb. The
// loop walks from the most significant limb down and always runs to
// completion: once a deciding limb is found, done latches and further
// iterations must not alter ret.
func CoreLTConstantTime(a, b []Limb) uint {
	var ret, done uint
	for i := len(a); i > 0; i-- {
		bLTa := ct.UintLT(b[i-1], a[i-1])
		done |= bLTa

		aLTb := ct.UintLT(a[i-1], b[i-1])
		ret |= aLTb & (1 - done)
		done |= aLTb
	}
	return ret
}

// LTConstantTime returns 1 if x < y and 0 otherwise, treating Sign and
// Limbs as a signed magnitude integer. x and y must have the same limb
// count — a public precondition, not a secret one, so its violation is
// reported directly as KindBadInput rather than folded into the
// constant-time region.
func LTConstantTime(x, y *Int) (uint, error) {
	if x == nil || y == nil {
		return 0, cterr.New(cterr.KindBadInput, "ctmpi.LTConstantTime")
	}
	if len(x.Limbs) != len(y.Limbs) {
		return 0, cterr.Wrap(cterr.KindBadInput, "ctmpi.LTConstantTime",
			fmt.Errorf("mismatched limb counts: %d != %d", len(x.Limbs), len(y.Limbs)))
	}

	xNeg := uint(0)
	if x.Sign < 0 {
		xNeg = 1
	}
	yNeg := uint(0)
	if y.Sign < 0 {
		yNeg = 1
	}

	// Differing signs decide the result outright: the negative operand
	// is smaller. Still required to walk the limbs below so the trace
	// doesn't reveal that the signs differed.
	cond := xNeg ^ yNeg
	ret := cond & xNeg
	done := cond

	for i := len(x.Limbs); i > 0; i-- {
		yLTx := ct.UintLT(y.Limbs[i-1], x.Limbs[i-1])
		ret |= yLTx & (1 - done) & xNeg
		done |= yLTx

		xLTy := ct.UintLT(x.Limbs[i-1], y.Limbs[i-1])
		ret |= xLTy & (1 - done) & (1 - xNeg)
		done |= xLTy
	}

	return ret, nil
}
