package mct

import (
	"encoding/binary"
	"math"

	"github.com/mrjoshuak/grokj2k/internal/codestream"
	"github.com/pkg/errors"
)

// ErrUnsupportedMCTArray is returned when an MCT segment's element type or
// array type isn't one this decoder's custom-transform path understands
// (only matrix-decorrelation arrays of 32-bit-float or 32-bit-int elements
// are supported; dependency arrays are for the encoder side only).
var ErrUnsupportedMCTArray = errors.New("mct: unsupported MCT array/element type")

// TransformChain is one parsed MCC collection bound to a concrete matrix
// (or to the identity/wavelet transform it names without needing a matrix).
type TransformChain struct {
	InputComponents  []int
	OutputComponents []int
	Transform        *CustomMCT // nil for identity/wavelet-only collections
}

// BuildChain resolves the header's MCT/MCC/MCO segments (parsed by
// codestream.Parser's readMCT/readMCC/readMCO, new additions absent from
// the teacher) into an ordered list of TransformChains ready to Apply/
// ApplyInverse, wiring them to the teacher's already-present CustomMCT
// (previously dead code with no caller — the teacher parsed no MCC/MCO at
// all).
func BuildChain(h *codestream.Header) ([]TransformChain, error) {
	if len(h.MCCSegments) == 0 {
		return nil, nil
	}

	mctByIndex := make(map[uint8]codestream.MCTSegment, len(h.MCTSegments))
	for _, m := range h.MCTSegments {
		mctByIndex[m.Index] = m
	}
	mccByIndex := make(map[uint8]codestream.MCCSegment, len(h.MCCSegments))
	for _, m := range h.MCCSegments {
		mccByIndex[m.Index] = m
	}

	var order []uint8
	if len(h.MCOSegments) > 0 {
		order = h.MCOSegments[0].CollectionIndices
	} else {
		for _, m := range h.MCCSegments {
			order = append(order, m.Index)
		}
	}

	chains := make([]TransformChain, 0, len(order))
	for _, idx := range order {
		mcc, ok := mccByIndex[idx]
		if !ok {
			continue
		}
		chain := TransformChain{
			InputComponents:  toIntSlice(mcc.InputComps),
			OutputComponents: toIntSlice(mcc.OutputComps),
		}
		if len(mcc.MCTIndices) > 0 {
			seg, ok := mctByIndex[mcc.MCTIndices[0]]
			if !ok {
				return nil, errors.Errorf("mct: MCC %d references unknown MCT %d", mcc.Index, mcc.MCTIndices[0])
			}
			matrix, err := decodeMatrix(seg, len(chain.InputComponents))
			if err != nil {
				return nil, errors.Wrapf(err, "mct: MCC %d", mcc.Index)
			}
			chain.Transform = NewCustomMCT(matrix, len(chain.InputComponents))
		}
		chains = append(chains, chain)
	}
	return chains, nil
}

// decodeMatrix interprets an MCT segment's raw payload as a row-major
// n x n matrix of the element type the segment declares.
func decodeMatrix(seg codestream.MCTSegment, n int) ([]float64, error) {
	if seg.ArrayType != 1 {
		return nil, errors.Wrapf(ErrUnsupportedMCTArray, "array type %d", seg.ArrayType)
	}
	out := make([]float64, n*n)
	switch seg.ElementSize {
	case 2: // 32-bit IEEE float
		for i := 0; i < n*n && (i+1)*4 <= len(seg.Data); i++ {
			bits := binary.BigEndian.Uint32(seg.Data[i*4:])
			out[i] = float64(math.Float32frombits(bits))
		}
	case 1: // 32-bit signed int, Q16.16-ish fixed point per Part 2 convention
		for i := 0; i < n*n && (i+1)*4 <= len(seg.Data); i++ {
			v := int32(binary.BigEndian.Uint32(seg.Data[i*4:]))
			out[i] = float64(v) / 65536.0
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedMCTArray, "element size %d", seg.ElementSize)
	}
	return out, nil
}

func toIntSlice(v []uint16) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}
