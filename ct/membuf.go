package ct

// MemCompare returns 0 if a and b are equal and a nonzero value
// otherwise. The memory-access trace is a strict left-to-right sweep of
// both slices regardless of where (or whether) they differ; callers must
// only compare the result against 0, never inspect its magnitude.
//
// Mismatched lengths are a public precondition violation (the lengths
// themselves are never secret) and panic rather than silently truncating.
func MemCompare(a, b []byte) int {
	if len(a) != len(b) {
		panic("ct: MemCompare: mismatched lengths")
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return int(diff)
}

// CopyIfEqual copies src into dst when c1 == c2, and leaves dst
// unchanged otherwise. dst is read and written on every iteration
// regardless of the outcome, so the "no copy" case is indistinguishable
// in memory trace from the "copy" case. Panics if len(dst) != len(src),
// a public precondition.
func CopyIfEqual(dst, src []byte, c1, c2 uint) {
	if len(dst) != len(src) {
		panic("ct: CopyIfEqual: mismatched lengths")
	}
	mask := byte(MaskOfBit(SizeEQ(c1, c2)))
	for i := range dst {
		dst[i] = (src[i] & mask) | (dst[i] &^ mask)
	}
}

// CopyAtOffset is memcpy(dst, src[offset:offset+len(dst)]), but the
// caller states only that offset lies in [offsetMin, offsetMax]; the
// access trace reveals only that range, never the actual offset. Cost is
// O((offsetMax-offsetMin+1) * len(dst)).
//
// offsetMin > offsetMax, or offsetMax+len(dst) > len(src), are public
// precondition violations and panic.
func CopyAtOffset(dst, src []byte, offset, offsetMin, offsetMax uint) {
	if offsetMin > offsetMax {
		panic("ct: CopyAtOffset: offsetMin > offsetMax")
	}
	if int(offsetMax)+len(dst) > len(src) {
		panic("ct: CopyAtOffset: offset range exceeds src")
	}
	for k := offsetMin; k <= offsetMax; k++ {
		CopyIfEqual(dst, src[k:int(k)+len(dst)], k, offset)
	}
}
