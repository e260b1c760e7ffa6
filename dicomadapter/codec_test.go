package dicomadapter

import (
	"image"
	"testing"
)

func TestCodecUIDAndName(t *testing.T) {
	var c Codec
	if c.UID() != UIDJPEG2000 {
		t.Fatalf("UID() = %q, want %q", c.UID(), UIDJPEG2000)
	}
	if c.Name() == "" {
		t.Fatal("Name() returned empty string")
	}
}

func TestToImageToDecodeResultRoundtrip_Gray8(t *testing.T) {
	params := EncodeParams{
		PixelData:  []byte{10, 20, 30, 40, 50, 60},
		Width:      3,
		Height:     2,
		Components: 1,
		BitDepth:   8,
	}
	img, err := toImage(params)
	if err != nil {
		t.Fatalf("toImage: %v", err)
	}
	if _, ok := img.(*image.Gray); !ok {
		t.Fatalf("toImage produced %T, want *image.Gray", img)
	}

	result, err := toDecodeResult(img)
	if err != nil {
		t.Fatalf("toDecodeResult: %v", err)
	}
	if result.Width != 3 || result.Height != 2 || result.Components != 1 || result.BitDepth != 8 {
		t.Fatalf("unexpected result shape: %+v", result)
	}
	for i, want := range params.PixelData {
		if result.PixelData[i] != want {
			t.Fatalf("sample %d = %d, want %d", i, result.PixelData[i], want)
		}
	}
}

func TestToImageToDecodeResultRoundtrip_RGB8(t *testing.T) {
	params := EncodeParams{
		PixelData:  []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Width:      2,
		Height:     2,
		Components: 3,
		BitDepth:   8,
	}
	img, err := toImage(params)
	if err != nil {
		t.Fatalf("toImage: %v", err)
	}
	result, err := toDecodeResult(img)
	if err != nil {
		t.Fatalf("toDecodeResult: %v", err)
	}
	if result.Components != 3 || result.Width != 2 || result.Height != 2 {
		t.Fatalf("unexpected result shape: %+v", result)
	}
	for i, want := range params.PixelData {
		if result.PixelData[i] != want {
			t.Fatalf("sample %d = %d, want %d", i, result.PixelData[i], want)
		}
	}
}

func TestToImageUnsupportedLayout(t *testing.T) {
	_, err := toImage(EncodeParams{Components: 2, BitDepth: 8, Width: 1, Height: 1, PixelData: []byte{0, 0}})
	if err == nil {
		t.Fatal("expected error for unsupported component count")
	}
}
