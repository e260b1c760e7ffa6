package box

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildBox encodes one ISO-base-media box: 4-byte length, 4-byte type, then
// contents, matching the header format Reader.ReadBox expects.
func buildBox(typ Type, contents []byte) []byte {
	buf := make([]byte, 8+len(contents))
	binary.BigEndian.PutUint32(buf[0:4], uint32(8+len(contents)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(typ))
	copy(buf[8:], contents)
	return buf
}

func buildStco(offsets []uint32) []byte {
	contents := make([]byte, 8+4*len(offsets))
	binary.BigEndian.PutUint32(contents[4:8], uint32(len(offsets)))
	for i, off := range offsets {
		binary.BigEndian.PutUint32(contents[8+4*i:12+4*i], off)
	}
	return buildBox(TypeChunkOffset, contents)
}

func buildStsz(sizes []uint32) []byte {
	contents := make([]byte, 12+4*len(sizes))
	// uniformSize stays 0: per-sample sizes follow.
	binary.BigEndian.PutUint32(contents[8:12], uint32(len(sizes)))
	for i, sz := range sizes {
		binary.BigEndian.PutUint32(contents[12+4*i:16+4*i], sz)
	}
	return buildBox(TypeSampleSize, contents)
}

func TestParseTrackList_SingleTrack(t *testing.T) {
	stbl := append(buildStco([]uint32{100, 250, 400}), buildStsz([]uint32{120, 130, 140})...)
	minf := buildBox(TypeMediaInfo, buildBox(TypeSampleTable, stbl))
	mdia := buildBox(TypeMedia, minf)
	trak := buildBox(TypeTrack, mdia)
	moov := buildBox(TypeMovie, trak)

	tl, err := ParseTrackList(bytes.NewReader(moov))
	if err != nil {
		t.Fatalf("ParseTrackList: %v", err)
	}
	if len(tl.Tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(tl.Tracks))
	}

	track := tl.Tracks[0]
	wantOffsets := []int64{100, 250, 400}
	if len(track.SampleOffsets) != len(wantOffsets) {
		t.Fatalf("got %d offsets, want %d", len(track.SampleOffsets), len(wantOffsets))
	}
	for i, want := range wantOffsets {
		if track.SampleOffsets[i] != want {
			t.Errorf("offset[%d] = %d, want %d", i, track.SampleOffsets[i], want)
		}
	}

	wantSizes := []uint32{120, 130, 140}
	for i, want := range wantSizes {
		if track.SampleSizes[i] != want {
			t.Errorf("size[%d] = %d, want %d", i, track.SampleSizes[i], want)
		}
	}
}

func TestParseTrackList_NoMoov(t *testing.T) {
	ftyp := buildBox(TypeFileType, []byte("jp2 "))
	tl, err := ParseTrackList(bytes.NewReader(ftyp))
	if err != nil {
		t.Fatalf("ParseTrackList: %v", err)
	}
	if len(tl.Tracks) != 0 {
		t.Fatalf("got %d tracks, want 0", len(tl.Tracks))
	}
}

func TestParseTrackList_UniformSampleSize(t *testing.T) {
	stsz := make([]byte, 12)
	binary.BigEndian.PutUint32(stsz[4:8], 64) // every sample is 64 bytes
	binary.BigEndian.PutUint32(stsz[8:12], 3) // 3 samples
	stco := buildStco([]uint32{10, 20, 30})
	stbl := append(stco, buildBox(TypeSampleSize, stsz)...)
	minf := buildBox(TypeMediaInfo, buildBox(TypeSampleTable, stbl))
	mdia := buildBox(TypeMedia, minf)
	trak := buildBox(TypeTrack, mdia)
	moov := buildBox(TypeMovie, trak)

	tl, err := ParseTrackList(bytes.NewReader(moov))
	if err != nil {
		t.Fatalf("ParseTrackList: %v", err)
	}
	if len(tl.Tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(tl.Tracks))
	}
	for i, sz := range tl.Tracks[0].SampleSizes {
		if sz != 64 {
			t.Errorf("size[%d] = %d, want 64", i, sz)
		}
	}
}
