package ct

// ShiftLeftInPlace is functionally equivalent to
//
//	copy(buf, buf[offset:])
//	clear(buf[len(buf)-offset:])
//
// but with a memory-access trace that depends only on len(buf), never on
// offset. It runs in O(len(buf)^2): the outer index walks every position
// a one-byte shift could need, and for each one a pass over the whole
// buffer decides — via Select, never a branch — whether this pass is a
// no-op or performs the shift. offset is only ever consumed as a Select
// condition, never as an address or a loop bound, which is what makes
// the trace offset-independent.
func ShiftLeftInPlace(buf []byte, offset uint) {
	total := uint(len(buf))
	if total == 0 {
		return
	}
	for i := uint(0); i < total; i++ {
		noOp := SizeGT(total-offset, i)
		for n := uint(0); n < total-1; n++ {
			current := buf[n]
			next := buf[n+1]
			buf[n] = byte(Select(noOp, uint(current), uint(next)))
		}
		buf[total-1] = byte(Select(noOp, uint(buf[total-1]), 0))
	}
}
