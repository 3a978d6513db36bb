// Package capture grabs the configured screen region as pixel frames.
package capture

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/chaoticbyte/loadsplit/config"
)

// ScreenGrabber captures one fixed region of one display per call. The
// region is validated against the display bounds once, at construction.
type ScreenGrabber struct {
	rect image.Rectangle
}

// NewScreenGrabber resolves the profile region against the selected display.
func NewScreenGrabber(monitor int, region config.Region) (*ScreenGrabber, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, errors.New("no active displays")
	}
	if monitor < 0 || monitor >= n {
		return nil, fmt.Errorf("monitor %d out of range, %d display(s) active", monitor, n)
	}
	bounds := screenshot.GetDisplayBounds(monitor)
	rect, err := regionRect(bounds, region)
	if err != nil {
		return nil, err
	}
	return &ScreenGrabber{rect: rect}, nil
}

// Grab captures the region. Each call hits the capture backend; the result
// is a freshly allocated frame the caller owns.
func (g *ScreenGrabber) Grab() (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(g.rect)
	if err != nil {
		return nil, fmt.Errorf("capture %v: %w", g.rect, err)
	}
	return img, nil
}

// regionRect translates a monitor-relative region into absolute screen
// coordinates and rejects regions that leave the display.
func regionRect(bounds image.Rectangle, region config.Region) (image.Rectangle, error) {
	rect := image.Rect(
		bounds.Min.X+region.Left,
		bounds.Min.Y+region.Top,
		bounds.Min.X+region.Left+region.Width,
		bounds.Min.Y+region.Top+region.Height,
	)
	if !rect.In(bounds) {
		return image.Rectangle{}, fmt.Errorf("region %v outside display bounds %v", rect, bounds)
	}
	return rect, nil
}
