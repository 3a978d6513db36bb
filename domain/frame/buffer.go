// Package frame holds pixel buffers and the numeric operations the detector
// runs on them: filtering, masking and difference scoring.
package frame

import (
	"errors"
	"fmt"
	"image"
)

var (
	ErrInvalidImageShape = errors.New("invalid image shape")
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Buffer is a flat plane of 8-bit samples, row-major, shape [H][W][C].
// C==1 marks a greyscale plane produced by a channel-collapsing filter.
// Colour buffers are BGR; the alpha channel is stripped on conversion.
type Buffer struct {
	Pix     []uint8
	W, H, C int
}

// New allocates a zeroed buffer of the given shape.
func New(w, h, c int) Buffer {
	return Buffer{Pix: make([]uint8, w*h*c), W: w, H: h, C: c}
}

// SameShape reports whether two buffers can be compared sample-for-sample.
func (b Buffer) SameShape(o Buffer) bool {
	return b.W == o.W && b.H == o.H && b.C == o.C
}

// Clone returns an independent copy.
func (b Buffer) Clone() Buffer {
	out := Buffer{Pix: make([]uint8, len(b.Pix)), W: b.W, H: b.H, C: b.C}
	copy(out.Pix, b.Pix)
	return out
}

func (b Buffer) shape() string {
	if b.C == 1 {
		return fmt.Sprintf("[%d %d]", b.H, b.W)
	}
	return fmt.Sprintf("[%d %d %d]", b.H, b.W, b.C)
}

// FromImage converts a decoded image into a BGR buffer, dropping alpha.
// Only 3- and 4-channel image kinds are accepted; a greyscale or paletted
// source indicates a reference that was not exported the way the detector
// expects. 16-bit truecolour sources are quantized to 8 bits per sample.
func FromImage(img image.Image) (Buffer, error) {
	switch src := img.(type) {
	case *image.NRGBA:
		return fromPix(src.Pix, src.Stride, src.Bounds()), nil
	case *image.RGBA:
		return fromPix(src.Pix, src.Stride, src.Bounds()), nil
	case *image.NRGBA64:
		return fromPix64(src.Pix, src.Stride, src.Bounds()), nil
	case *image.RGBA64:
		return fromPix64(src.Pix, src.Stride, src.Bounds()), nil
	default:
		return Buffer{}, fmt.Errorf("%w: %T is not a 3- or 4-channel image", ErrInvalidImageShape, img)
	}
}

// FromRGBA converts a captured frame into a BGR buffer, dropping alpha.
func FromRGBA(img *image.RGBA) (Buffer, error) {
	if img == nil {
		return Buffer{}, fmt.Errorf("%w: nil frame", ErrInvalidImageShape)
	}
	return fromPix(img.Pix, img.Stride, img.Bounds()), nil
}

// fromPix64 handles 16-bit RGBA layouts: 8 bytes per pixel, each sample
// big-endian, reduced to its high byte.
func fromPix64(pix []uint8, stride int, bounds image.Rectangle) Buffer {
	w, h := bounds.Dx(), bounds.Dy()
	out := New(w, h, 3)
	i := 0
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*8]
		for x := 0; x < w; x++ {
			r, g, b := row[x*8], row[x*8+2], row[x*8+4]
			out.Pix[i] = b
			out.Pix[i+1] = g
			out.Pix[i+2] = r
			i += 3
		}
	}
	return out
}

func fromPix(pix []uint8, stride int, bounds image.Rectangle) Buffer {
	w, h := bounds.Dx(), bounds.Dy()
	out := New(w, h, 3)
	i := 0
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		for x := 0; x < w; x++ {
			r, g, b := row[x*4], row[x*4+1], row[x*4+2]
			out.Pix[i] = b
			out.Pix[i+1] = g
			out.Pix[i+2] = r
			i += 3
		}
	}
	return out
}
