// Package dicomadapter adapts the top-level grokj2k decoder/encoder to the
// transfer-syntax codec shape DICOM toolkits register compressed pixel-data
// handlers under (one UID, one Encode/Decode pair). It defines that shape
// itself rather than importing a DICOM library, so this module gains no
// hard dependency on one: a caller that already has a go-dicom-style
// registry wires dicomadapter.Codec into it with one Register call of their own.
package dicomadapter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	grokj2k "github.com/mrjoshuak/grokj2k"
)

// UIDJPEG2000Lossless is the DICOM Transfer Syntax UID for JPEG 2000
// Image Compression (Lossless Only).
const UIDJPEG2000Lossless = "1.2.840.10008.1.2.4.90"

// UIDJPEG2000 is the DICOM Transfer Syntax UID for JPEG 2000 Image
// Compression (lossless or lossy, codestream selects which).
const UIDJPEG2000 = "1.2.840.10008.1.2.4.91"

// EncodeParams mirrors the fields a DICOM codec registry's Codec.Encode
// needs from pixel data already extracted from a frame: uncompressed
// samples in row-major, component-interleaved order, big-endian byte order
// for BitDepth > 8.
type EncodeParams struct {
	PixelData  []byte
	Width      int
	Height     int
	Components int
	BitDepth   int
	Lossless   bool
}

// DecodeResult mirrors the fields a DICOM codec registry's Codec.Decode
// hands back to the caller for repacking into a frame.
type DecodeResult struct {
	PixelData  []byte
	Width      int
	Height     int
	Components int
	BitDepth   int
}

// Codec implements the UID/Name/Encode/Decode shape DICOM codec registries
// (grokj2k's one grounding example: cocosip-go-dicom-codec's codec.Codec)
// expect, backed by grokj2k.Encode/grokj2k.Decode.
type Codec struct{}

// UID returns the JPEG 2000 (lossless-or-lossy) transfer syntax UID this
// codec answers to.
func (Codec) UID() string { return UIDJPEG2000 }

// Name returns a human-readable codec name.
func (Codec) Name() string { return "JPEG2000" }

// Decode decompresses one frame's JPEG 2000 codestream into raw pixel
// samples.
func (Codec) Decode(data []byte) (*DecodeResult, error) {
	img, err := grokj2k.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dicomadapter: decode: %w", err)
	}
	return toDecodeResult(img)
}

// Encode compresses raw pixel samples into a JPEG 2000 codestream.
func (c Codec) Encode(params EncodeParams) ([]byte, error) {
	img, err := toImage(params)
	if err != nil {
		return nil, fmt.Errorf("dicomadapter: encode: %w", err)
	}
	opts := grokj2k.DefaultOptions()
	opts.Format = grokj2k.FormatJ2K
	opts.Lossless = params.Lossless
	opts.Precision = params.BitDepth
	var buf bytes.Buffer
	if err := grokj2k.Encode(&buf, img, opts); err != nil {
		return nil, fmt.Errorf("dicomadapter: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// toDecodeResult flattens a decoded image.Image back into row-major,
// component-interleaved samples, the shape DICOM pixel-data handlers expect
// to write straight into a frame buffer.
func toDecodeResult(img image.Image) (*DecodeResult, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch px := img.(type) {
	case *image.Gray:
		out := make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(out[y*w:(y+1)*w], px.Pix[y*px.Stride:y*px.Stride+w])
		}
		return &DecodeResult{PixelData: out, Width: w, Height: h, Components: 1, BitDepth: 8}, nil

	case *image.Gray16:
		out := make([]byte, w*h*2)
		for y := 0; y < h; y++ {
			copy(out[y*w*2:(y+1)*w*2], px.Pix[y*px.Stride:y*px.Stride+w*2])
		}
		return &DecodeResult{PixelData: out, Width: w, Height: h, Components: 1, BitDepth: 16}, nil

	case *image.RGBA:
		out := make([]byte, w*h*3)
		for y := 0; y < h; y++ {
			row := px.Pix[y*px.Stride : y*px.Stride+w*4]
			for x := 0; x < w; x++ {
				out[(y*w+x)*3+0] = row[x*4+0]
				out[(y*w+x)*3+1] = row[x*4+1]
				out[(y*w+x)*3+2] = row[x*4+2]
			}
		}
		return &DecodeResult{PixelData: out, Width: w, Height: h, Components: 3, BitDepth: 8}, nil

	case *image.RGBA64:
		out := make([]byte, w*h*6)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := px.At(x, y).RGBA()
				i := (y*w + x) * 6
				out[i+0], out[i+1] = byte(r>>8), byte(r)
				out[i+2], out[i+3] = byte(g>>8), byte(g)
				out[i+4], out[i+5] = byte(b>>8), byte(b)
			}
		}
		return &DecodeResult{PixelData: out, Width: w, Height: h, Components: 3, BitDepth: 16}, nil

	default:
		return nil, fmt.Errorf("dicomadapter: unsupported decoded image type %T", img)
	}
}

// toImage repacks a DICOM frame's raw samples into an image.Image grokj2k's
// encoder accepts.
func toImage(p EncodeParams) (image.Image, error) {
	rect := image.Rect(0, 0, p.Width, p.Height)
	switch {
	case p.Components == 1 && p.BitDepth <= 8:
		img := image.NewGray(rect)
		copy(img.Pix, p.PixelData)
		return img, nil
	case p.Components == 1:
		img := image.NewGray16(rect)
		copy(img.Pix, p.PixelData)
		return img, nil
	case p.Components == 3 && p.BitDepth <= 8:
		img := image.NewRGBA(rect)
		for i := 0; i < p.Width*p.Height; i++ {
			img.Pix[i*4+0] = p.PixelData[i*3+0]
			img.Pix[i*4+1] = p.PixelData[i*3+1]
			img.Pix[i*4+2] = p.PixelData[i*3+2]
			img.Pix[i*4+3] = 255
		}
		return img, nil
	case p.Components == 3:
		img := image.NewRGBA64(rect)
		for i := 0; i < p.Width*p.Height; i++ {
			r := uint16(p.PixelData[i*6+0])<<8 | uint16(p.PixelData[i*6+1])
			g := uint16(p.PixelData[i*6+2])<<8 | uint16(p.PixelData[i*6+3])
			b := uint16(p.PixelData[i*6+4])<<8 | uint16(p.PixelData[i*6+5])
			img.SetRGBA64(i%p.Width, i/p.Width, color.RGBA64{R: r, G: g, B: b, A: 65535})
		}
		return img, nil
	default:
		return nil, fmt.Errorf("dicomadapter: unsupported pixel layout: %d components at %d bits", p.Components, p.BitDepth)
	}
}
