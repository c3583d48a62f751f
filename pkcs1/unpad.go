// Package pkcs1 implements the constant-flow RSAES-PKCS1-v1.5 unpadding
// algorithm of spec.md §4.8: the composite that demonstrates the whole
// discipline by parsing an RSA-decrypted block, validating its padding,
// and extracting the plaintext with a trace that depends only on buffer
// lengths, never on buffer contents.
package pkcs1

import (
	"github.com/lookbusy1344/constant-time-go/ct"
	"github.com/lookbusy1344/constant-time-go/cterr"
)

// blockType0x02 is the EME-PKCS1-v1_5 encryption block type (RFC 8017
// §7.2.2): 0x00 || 0x02 || PS || 0x00 || M.
const blockType0x02 = 0x02

// minPadLen is the minimum number of nonzero PS bytes RFC 8017 requires.
const minPadLen = 8

// Unpad parses input as an EME-PKCS1-v1_5 encoded block and writes the
// recovered plaintext to output, returning the plaintext length.
//
// The observable control flow depends only on len(input) and
// len(output): the plaintext, its length, the padding's validity, and
// the offset of the 0x00 separator never influence timing, memory
// trace, or which branch is taken, apart from the final switch that
// turns the branch-free error code into an error value. On any failure
// the returned error is
// either *cterr.Error{Kind: KindInvalidPadding} or
// *cterr.Error{Kind: KindOutputTooLarge} — both must be treated
// identically by callers operating at a security boundary (see
// cterr.IsPaddingOracle) to avoid a Bleichenbacher-style oracle.
//
// len(input) < 11 is a public precondition violation (malformed
// ciphertext length, visible before decryption even runs) and is
// reported as KindBadInput outside the constant-time region.
func Unpad(input, output []byte) (int, error) {
	ilen := len(input)
	if ilen < 11 {
		return 0, cterr.New(cterr.KindBadInput, "pkcs1.Unpad")
	}
	outputMaxLen := len(output)

	plaintextMaxSize := outputMaxLen
	if uint(outputMaxLen) > uint(ilen-11) {
		plaintextMaxSize = ilen - 11
	}

	// The following locals take sensitive values: they must not leak
	// into observable behavior other than the designated outputs
	// (output, the returned length, the returned error). This is what
	// keeps the function from becoming a side-channel-based
	// Bleichenbacher oracle.
	var bad uint
	var padDone byte
	var padCount uint

	bad |= uint(input[0])
	bad |= uint(input[1] ^ blockType0x02)

	for i := 2; i < ilen; i++ {
		b := input[i]
		padDone |= ((b | byte(-b)) >> 7) ^ 1
		padCount += uint(((padDone | byte(-padDone)) >> 7) ^ 1)
	}

	bad |= ct.Select(uint(padDone), 0, 1)
	bad |= ct.SizeGT(minPadLen, padCount)

	plaintextSize := ct.Select(bad, uint(plaintextMaxSize), uint(ilen)-padCount-3)

	outputTooLarge := ct.SizeGT(plaintextSize, uint(plaintextMaxSize))

	// Fold bad, outputTooLarge, and the success case into a single
	// branch-free numeric code: invalid padding dominates output too
	// large, which dominates success. Only the final translation of
	// that code into a Go error value needs a branch, and by then the
	// classification is already the function's intended (documented)
	// observable output — see cterr.IsPaddingOracle for where the two
	// failure kinds must be folded back together by the caller.
	const (
		codeOK = iota
		codeInvalidPadding
		codeOutputTooLarge
	)
	errCode := ct.Select(bad, uint(codeInvalidPadding), ct.Select(outputTooLarge, uint(codeOutputTooLarge), uint(codeOK)))

	var err error
	switch errCode {
	case codeInvalidPadding:
		err = cterr.ErrInvalidPadding
	case codeOutputTooLarge:
		err = cterr.ErrOutputTooLarge
	}

	scrub := byte(ct.MaskOfBit(bad | outputTooLarge))
	for i := 11; i < ilen; i++ {
		input[i] &^= scrub
	}

	plaintextSize = ct.Select(outputTooLarge, uint(plaintextMaxSize), plaintextSize)

	ct.ShiftLeftInPlace(input[ilen-plaintextMaxSize:], uint(plaintextMaxSize)-plaintextSize)

	if outputMaxLen != 0 {
		copy(output, input[ilen-plaintextMaxSize:])
	}

	return int(plaintextSize), err
}
