package frame

import "github.com/chaoticbyte/loadsplit/config"

// ApplyFilters runs the pipeline in the profile's canonical order. The input
// buffer is never mutated; each stage returns a fresh buffer. References and
// live captures must pass through the same pipeline so shapes stay comparable.
func ApplyFilters(b Buffer, filters []config.Filter) Buffer {
	for _, f := range filters {
		switch f {
		case config.FilterMeanGreyscale:
			b = meanGreyscale(b)
		}
	}
	return b
}

// meanGreyscale collapses the channel axis by averaging. Applying it to an
// already-greyscale buffer is a no-op, so the pipeline stays shape-idempotent.
func meanGreyscale(b Buffer) Buffer {
	if b.C == 1 {
		return b
	}
	out := New(b.W, b.H, 1)
	c := b.C
	for i := range out.Pix {
		sum := 0
		for k := 0; k < c; k++ {
			sum += int(b.Pix[i*c+k])
		}
		out.Pix[i] = uint8(sum / c)
	}
	return out
}
