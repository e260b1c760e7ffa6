//go:build !purego

package entropy

// mq_inline.go holds the small, allocation-free helpers the Inline-suffixed
// T1 methods call directly rather than going through MQEncoder — kept in
// their own file so the hot encode loop in t1.go stays readable while these
// stay small enough for the compiler to actually inline.

// signContextPairLUT maps a (horizontal, vertical) neighbor sign
// contribution pair, each ranging -2..2, to the sign-coding context and the
// XOR bit applied before coding. Index: (hContrib+2)*5 + (vContrib+2).
var signContextPairLUT [25]struct {
	ctx    uint8
	xorbit uint8
}

func init() {
	// Build sign context LUT matching JPEG 2000 spec
	for h := -2; h <= 2; h++ {
		for v := -2; v <= 2; v++ {
			idx := (h+2)*5 + (v + 2)
			ctx, xorbit := deriveSignContext(h, v)
			signContextPairLUT[idx] = struct{ ctx, xorbit uint8 }{ctx, xorbit}
		}
	}
}

func deriveSignContext(hc, vc int) (ctx uint8, xorbit uint8) {
	// Normalize contributions
	xorbit = 0
	if hc < 0 {
		xorbit = 1
		hc = -hc
	}
	if hc == 0 && vc < 0 {
		xorbit = 1
		vc = -vc
	}

	// Clamp to 0-1
	if hc > 1 {
		hc = 1
	}
	if vc < 0 {
		vc = -vc
	}
	if vc > 1 {
		vc = 1
	}

	// Context from table (CtxSC0 + offset)
	switch {
	case hc == 1:
		if vc == 1 {
			ctx = 14 // CtxSC4
		} else {
			ctx = 12 // CtxSC2
		}
	case hc == 0:
		if vc == 0 {
			ctx = 10 // CtxSC0
		} else {
			ctx = 11 // CtxSC1
		}
	default:
		ctx = 10 // CtxSC0
	}
	return
}

// signNeighborContribution returns the sign contribution (-1, 0, +1) from a neighbor flag.
// This is a simpler function that should inline.
//
//go:nosplit
func signNeighborContribution(f T1Flags) int {
	if f&T1Sig == 0 {
		return 0
	}
	if f&T1SignNeg != 0 {
		return -1
	}
	return 1
}

// clampToContribRange clamps contribution to [-2, 2] range for LUT lookup.
//
//go:nosplit
func clampToContribRange(c int) int {
	if c < -2 {
		return -2
	}
	if c > 2 {
		return 2
	}
	return c
}

// needsCarryHandling checks if we need the slow byte output path.
//
//go:nosplit
func needsCarryHandling(buf []byte, bp int, c uint32) bool {
	return buf[bp] == 0xFF || (c&0x8000000) != 0
}

// emitByteFastPath is the common fast path byte output.
// Only call when needsCarryHandling returns false!
//
//go:nosplit
func emitByteFastPath(buf []byte, bp int, c uint32) (int, uint32, uint32) {
	bp++
	buf[bp] = byte(c >> 19)
	return bp, c & 0x7FFFF, 8
}

// emitByteCarryPath handles the rare byte output cases (0xFF, carry).
//
//go:noinline
func emitByteCarryPath(buf []byte, bp int, c uint32) (int, uint32, uint32) {
	if buf[bp] == 0xFF {
		bp++
		buf[bp] = byte(c >> 20)
		return bp, c & 0xFFFFF, 7
	}
	// Carry case
	buf[bp]++
	if buf[bp] == 0xFF {
		c &= 0x7FFFFFF
		bp++
		buf[bp] = byte(c >> 20)
		return bp, c & 0xFFFFF, 7
	}
	bp++
	buf[bp] = byte(c >> 19)
	return bp, c & 0x7FFFF, 8
}
