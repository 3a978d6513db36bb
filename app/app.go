// Package app assembles the detector from its parts and runs one of the
// three operating modes.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/chaoticbyte/loadsplit/capture"
	"github.com/chaoticbyte/loadsplit/config"
	"github.com/chaoticbyte/loadsplit/debug"
	"github.com/chaoticbyte/loadsplit/domain/loading"
	"github.com/chaoticbyte/loadsplit/libresplit"
)

const debugStatsInterval = 5 * time.Second

type App struct {
	cfg    *config.Profile
	logger *slog.Logger
}

func New(cfg *config.Profile, logger *slog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Run drives the full state machine and emits timer commands on edges.
func (a *App) Run(ctx context.Context) error {
	mon, err := a.buildMonitor()
	if err != nil {
		return err
	}
	return mon.Run(ctx)
}

// DumpDifference runs the capture/score pipeline but only prints scores;
// commands are never sent.
func (a *App) DumpDifference(ctx context.Context) error {
	mon, err := a.buildMonitor()
	if err != nil {
		return err
	}
	mon.DumpScores(true)
	return mon.Run(ctx)
}

// buildMonitor performs the startup sequence: load references, resolve the
// capture region, resolve the socket path. Any failure here aborts before
// the loop ever starts.
func (a *App) buildMonitor() (*loading.Monitor, error) {
	refs, err := loading.LoadReferences(a.cfg)
	if err != nil {
		return nil, err
	}
	grabber, err := capture.NewScreenGrabber(a.cfg.Monitor, a.cfg.Region)
	if err != nil {
		return nil, err
	}
	socketPath := libresplit.SocketPath()
	a.logger.Debug("controller socket resolved", "path", socketPath)
	client := libresplit.NewClient(socketPath)
	if a.cfg.Debug {
		debug.StartStatsLogger(debugStatsInterval, a.logger)
	}
	return loading.NewMonitor(a.cfg, a.logger, refs, grabber, client)
}
