package box

import "io"

// MJ2 (Motion JPEG 2000) box types this stub recognizes — just enough to
// walk moov/trak/mdia/minf/stbl far enough to locate each track's sample
// offsets, per the Non-goal boundary ("all details beyond locating the
// codestream are external collaborators"). Full MJ2 track/sample semantics
// (edit lists, multiple sample description entries, fragmented movies) are
// intentionally out of scope.
const (
	TypeMovie       Type = 0x6D6F6F76 // "moov"
	TypeTrack       Type = 0x7472616B // "trak"
	TypeMedia       Type = 0x6D646961 // "mdia"
	TypeMediaInfo   Type = 0x6D696E66 // "minf"
	TypeSampleTable Type = 0x7374626C // "stbl"
	TypeSampleSize  Type = 0x7374737A // "stsz"
	TypeChunkOffset Type = 0x7374636F // "stco"
	TypeMediaData   Type = 0x6D646174 // "mdat"
)

// Track is one MJ2 track's codestream sample locations: one offset+size
// pair per sample (frame), each a standalone JPEG 2000 codestream embedded
// in the file's mdat box.
type Track struct {
	SampleOffsets []int64
	SampleSizes   []uint32
}

// TrackList enumerates the tracks in an MJ2 file's moov box, shallow: it
// recognizes stco (chunk offset) and stsz (sample size) boxes only far
// enough to pair up offsets and sizes, assuming one sample per chunk (true
// for the simple, non-interleaved MJ2 files this decoder targets).
type TrackList struct {
	Tracks []Track
}

// ParseTrackList walks r's top-level boxes looking for a moov box and
// enumerates every trak within it. r must be positioned on a box boundary
// at or before the moov box; every top-level box ahead of moov (the JP2/MJ2
// signature and ftyp boxes included) is read and skipped. With no moov box
// it returns an empty TrackList.
func ParseTrackList(r io.Reader) (*TrackList, error) {
	br := NewReader(r)
	for {
		b, err := br.ReadBox()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if b.Type == TypeMovie {
			return parseMoov(b.Contents)
		}
	}
	return &TrackList{}, nil
}

func parseMoov(data []byte) (*TrackList, error) {
	tl := &TrackList{}
	r := NewReader(&sliceReader{data: data})
	for {
		b, err := r.ReadBox()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if b.Type == TypeTrack {
			t, err := parseTrak(b.Contents)
			if err != nil {
				return nil, err
			}
			tl.Tracks = append(tl.Tracks, t)
		}
	}
	return tl, nil
}

func parseTrak(data []byte) (Track, error) {
	var t Track
	var offsets []int64
	var sizes []uint32
	walkNested(data, func(b *Box) {
		switch b.Type {
		case TypeChunkOffset:
			offsets = parseStco(b.Contents)
		case TypeSampleSize:
			sizes = parseStsz(b.Contents)
		}
	})
	t.SampleOffsets = offsets
	t.SampleSizes = sizes
	return t, nil
}

// walkNested recurses through every box in data and its children,
// invoking visit on each — deliberately shallow (no version/flag
// validation) since this stub only needs to find stco/stsz wherever they
// sit under mdia/minf/stbl.
func walkNested(data []byte, visit func(*Box)) {
	r := NewReader(&sliceReader{data: data})
	for {
		b, err := r.ReadBox()
		if err == io.EOF {
			break
		}
		if err != nil {
			return
		}
		visit(b)
		switch b.Type {
		case TypeTrack, TypeMedia, TypeMediaInfo, TypeSampleTable:
			walkNested(b.Contents, visit)
		}
	}
}

func parseStco(data []byte) []int64 {
	if len(data) < 8 {
		return nil
	}
	count := be32(data[4:8])
	out := make([]int64, 0, count)
	off := 8
	for i := uint32(0); i < count && off+4 <= len(data); i++ {
		out = append(out, int64(be32(data[off:off+4])))
		off += 4
	}
	return out
}

func parseStsz(data []byte) []uint32 {
	if len(data) < 12 {
		return nil
	}
	uniformSize := be32(data[4:8])
	count := be32(data[8:12])
	if uniformSize != 0 {
		out := make([]uint32, count)
		for i := range out {
			out[i] = uniformSize
		}
		return out
	}
	out := make([]uint32, 0, count)
	off := 12
	for i := uint32(0); i < count && off+4 <= len(data); i++ {
		out = append(out, be32(data[off:off+4]))
		off += 4
	}
	return out
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
