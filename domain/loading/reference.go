package loading

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/chaoticbyte/loadsplit/config"
	"github.com/chaoticbyte/loadsplit/domain/frame"
)

// Reference is one known-good image prepared for comparison: decoded,
// alpha-stripped, filtered and mask-applied exactly once at startup.
// Read-only afterwards.
type Reference struct {
	Path   string
	Pixels frame.Buffer
	Mask   *frame.Buffer
}

// LoadReferences prepares every profile reference. Masks go through the same
// alpha strip and filter pipeline as their reference so shapes line up; a
// shape disagreement after filtering is a profile bug and aborts startup.
func LoadReferences(p *config.Profile) ([]Reference, error) {
	refs := make([]Reference, 0, len(p.References))
	for _, entry := range p.References {
		ref, err := loadReference(entry, p.Filters)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func loadReference(entry config.ReferenceEntry, filters []config.Filter) (Reference, error) {
	buf, err := loadBuffer(entry.Image, filters)
	if err != nil {
		return Reference{}, fmt.Errorf("reference %s: %w", entry.Image, err)
	}
	ref := Reference{Path: entry.Image, Pixels: buf}
	if entry.Mask == "" {
		return ref, nil
	}
	mask, err := loadBuffer(entry.Mask, filters)
	if err != nil {
		return Reference{}, fmt.Errorf("mask %s: %w", entry.Mask, err)
	}
	masked, err := frame.ApplyMask(ref.Pixels, mask)
	if err != nil {
		return Reference{}, fmt.Errorf("mask %s against %s: %w", entry.Mask, entry.Image, err)
	}
	ref.Pixels = masked
	ref.Mask = &mask
	return ref, nil
}

func loadBuffer(path string, filters []config.Filter) (frame.Buffer, error) {
	img, err := decodePNG(path)
	if err != nil {
		return frame.Buffer{}, err
	}
	buf, err := frame.FromImage(img)
	if err != nil {
		return frame.Buffer{}, err
	}
	return frame.ApplyFilters(buf, filters), nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := rejectGreyPNG(f); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind png: %w", err)
	}
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

// PNG colour types carrying a single luminance channel.
const (
	pngColourGrey      = 0
	pngColourGreyAlpha = 4
)

// rejectGreyPNG inspects the IHDR colour type before decoding. image/png
// widens greyscale and grey+alpha sources into Gray or NRGBA values, which
// would slip a 1- or 2-channel reference past the channel-count check; the
// header is the only place the real sample layout is still visible. Files
// that do not look like a PNG are left for the decoder to report.
func rejectGreyPNG(r io.Reader) error {
	// 8-byte signature, 8-byte IHDR length+type, then width(4) height(4)
	// bit depth(1) colour type(1): the colour type sits at offset 25.
	var header [26]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil
	}
	if string(header[1:4]) != "PNG" || string(header[12:16]) != "IHDR" {
		return nil
	}
	switch ct := header[25]; ct {
	case pngColourGrey, pngColourGreyAlpha:
		return fmt.Errorf("%w: greyscale png (colour type %d) is not a 3- or 4-channel image", frame.ErrInvalidImageShape, ct)
	}
	return nil
}
