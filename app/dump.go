package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/chaoticbyte/loadsplit/capture"
)

// DumpImages periodically saves raw region captures into a timestamped
// directory next to the profile file. It bypasses scoring entirely; the
// simple sleep pacing is deliberate, extra precision buys nothing here.
func (a *App) DumpImages(ctx context.Context, freq float64) error {
	if freq <= 0 {
		return fmt.Errorf("dump frequency must be positive, got %v", freq)
	}
	grabber, err := capture.NewScreenGrabber(a.cfg.Monitor, a.cfg.Region)
	if err != nil {
		return err
	}
	outDir := filepath.Join(a.cfg.Dir, fmt.Sprintf("dump_%d", time.Now().Unix()))
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}
	a.logger.Info("dumping captures", "dir", outDir, "frequency_hz", freq)

	interval := time.Duration(float64(time.Second) / freq)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		img, err := grabber.Grab()
		if err != nil {
			return err
		}
		name := fmt.Sprintf("%d.png", time.Now().UnixMilli()/100)
		if err := imaging.Save(img, filepath.Join(outDir, name)); err != nil {
			return fmt.Errorf("save capture: %w", err)
		}
		time.Sleep(interval)
	}
}
