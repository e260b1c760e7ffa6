package entropy

// Code-block style flags from the SPcod/SPcoc byte of COD/COC, mirrored
// here so entropy doesn't need to import codestream just for bit masks.
const (
	CodeBlockBypass      uint8 = 0x01
	CodeBlockReset       uint8 = 0x02
	CodeBlockTermination uint8 = 0x04
)

// DecodeWithStyle decodes a code-block honoring the termination and bypass
// code-block style flags the teacher's plain Decode never looked at (it
// always assumed one continuously-coded MQ segment covering the whole
// block). The context-reset flag takes effect only together with
// termination or bypass; with reset alone the block decodes as plain Decode
// does. The segmentation-symbol flag is not handled. Callers that don't need
// these modes keep using the cheaper Decode.
//
// segLengths gives the byte length of each terminated segment in order when
// CodeBlockTermination is set (one segment per coding pass); nil/empty
// means the block is a single segment, matching plain Decode's assumption.
func (t *T1) DecodeWithStyle(data []byte, numBPS int, bandType int, style uint8, segLengths []int) []int32 {
	t.bandType = bandType
	t.numBPS = numBPS

	for i := range t.data {
		t.data[i] = 0
	}
	for i := range t.flags {
		t.flags[i] = 0
	}

	termAll := style&CodeBlockTermination != 0
	bypass := style&CodeBlockBypass != 0
	resetCtx := style&CodeBlockReset != 0

	if !termAll && !bypass {
		t.mqDec = NewMQDecoder(data)
		for bp := numBPS - 1; bp >= 0; bp-- {
			t.decodeSignificancePass(bp)
			t.decodeMagnitudeRefinementPass(bp)
			t.decodeCleanupPass(bp)
		}
		return t.finishDecode()
	}

	offset := 0
	segIdx := 0
	nextSegData := func() []byte {
		if len(segLengths) == 0 {
			return data[offset:]
		}
		if segIdx >= len(segLengths) {
			return nil
		}
		end := offset + segLengths[segIdx]
		if end > len(data) {
			end = len(data)
		}
		seg := data[offset:end]
		offset = end
		segIdx++
		return seg
	}

	// bypassFromDepth is the bit-plane depth (counting down from numBPS-1) at
	// which raw bit coding begins: JPEG 2000 keeps the first four
	// magnitude bit-planes arithmetic-coded and switches significance and
	// cleanup passes to raw bits from the fifth bit-plane onward.
	const bypassFromDepth = 4

	t.mqDec = NewMQDecoder(nextSegData())
	var rawDec *RawDecoder

	for bp := numBPS - 1; bp >= 0; bp-- {
		depth := numBPS - 1 - bp
		useRaw := bypass && depth >= bypassFromDepth

		if termAll && bp != numBPS-1 {
			t.mqDec = NewMQDecoder(nextSegData())
		}
		if resetCtx {
			t.mqDec.ResetAllContexts()
		}

		if useRaw {
			if rawDec == nil || termAll {
				rawDec = NewRawDecoder(nextSegData())
			}
			t.decodeSignificancePassRaw(bp, rawDec)
		} else {
			t.decodeSignificancePass(bp)
		}

		// Magnitude refinement always stays arithmetic, per spec; it never
		// switches to raw bits in bypass mode.
		if termAll {
			t.mqDec = NewMQDecoder(nextSegData())
		}
		t.decodeMagnitudeRefinementPass(bp)

		if termAll {
			t.mqDec = NewMQDecoder(nextSegData())
		}
		if useRaw {
			if rawDec == nil {
				rawDec = NewRawDecoder(nextSegData())
			}
			t.decodeCleanupPassRaw(bp, rawDec)
		} else {
			t.decodeCleanupPass(bp)
		}
	}

	return t.finishDecode()
}

func (t *T1) finishDecode() []int32 {
	result := make([]int32, len(t.data))
	for i, v := range t.data {
		if t.flags[t.neighborFlagIndex(i%t.width, i/t.width)]&T1SignNeg != 0 {
			result[i] = -v
		} else {
			result[i] = v
		}
	}
	return result
}

// decodeSignificancePassRaw mirrors decodeSignificancePass but reads
// significance/sign decisions as raw bits instead of MQ-coded symbols.
func (t *T1) decodeSignificancePassRaw(bp int, r *RawDecoder) {
	bit := int32(1) << bp
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			if t.hasNeighborFlag(x, y, T1Sig) {
				continue
			}
			if !t.hasSignificantNeighborPixel(x, y) {
				continue
			}
			if r.DecodeBit() != 0 {
				t.data[y*t.width+x] = bit
				if r.DecodeBit() != 0 {
					t.setNeighborFlag(x, y, T1SignNeg)
				}
				t.setNeighborFlag(x, y, T1Sig)
				t.propagateNeighborFlags(x, y)
			}
			t.setNeighborFlag(x, y, T1Visit)
		}
	}
}

// decodeCleanupPassRaw mirrors decodeCleanupPass without the run-length
// shortcut (run-length coding assumes an arithmetic context and does not
// apply once a pass has switched to raw bits).
func (t *T1) decodeCleanupPassRaw(bp int, r *RawDecoder) {
	bit := int32(1) << bp
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			if t.hasNeighborFlag(x, y, T1Sig) || t.hasNeighborFlag(x, y, T1Visit) {
				t.clearNeighborFlag(x, y, T1Visit)
				continue
			}
			if r.DecodeBit() != 0 {
				t.data[y*t.width+x] = bit
				if r.DecodeBit() != 0 {
					t.setNeighborFlag(x, y, T1SignNeg)
				}
				t.setNeighborFlag(x, y, T1Sig)
				t.propagateNeighborFlags(x, y)
			}
		}
	}
}
