package frame

import "fmt"

// ApplyMask attenuates b element-wise by mask: a mask sample of 255 keeps
// the input sample, 0 drops it, values in between scale it. The output is a
// new buffer with b's shape; b is left untouched so the same per-tick capture
// can be masked differently for every reference comparison.
func ApplyMask(b, mask Buffer) (Buffer, error) {
	if !b.SameShape(mask) {
		return Buffer{}, fmt.Errorf("%w: buffer %s vs mask %s", ErrDimensionMismatch, b.shape(), mask.shape())
	}
	out := New(b.W, b.H, b.C)
	for i, v := range b.Pix {
		out.Pix[i] = uint8(uint16(v) * uint16(mask.Pix[i]) / 255)
	}
	return out, nil
}
