package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaoticbyte/loadsplit/app"
	"github.com/chaoticbyte/loadsplit/config"
)

const (
	cmdRun        = "run"
	cmdDumpDiff   = "dump-difference"
	cmdDumpImages = "dump-images"

	defaultDumpFreq = 1.0
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: loadsplit <command> <profile> [flags]

commands:
  %s              watch the region and drive the timer on state changes
  %s  print per-reference difference scores, send nothing
  %s      periodically save raw region captures

flags:
  --dump-freq N    images per second for %s (default %v)
  --debug          verbose logging
`, cmdRun, cmdDumpDiff, cmdDumpImages, cmdDumpImages, defaultDumpFreq)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("loadsplit", flag.ContinueOnError)
	dumpFreq := fs.Float64("dump-freq", defaultDumpFreq, "images per second for dump-images")
	debugFlag := fs.Bool("debug", false, "verbose logging")

	// flag stops at the first positional, so parse once for leading flags
	// and once more for flags trailing the command and profile path.
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 2 {
		usage()
		return errors.New("missing command or profile path")
	}
	command, profilePath := rest[0], rest[1]
	if err := fs.Parse(rest[2:]); err != nil {
		return err
	}

	cfg, err := config.LoadProfile(profilePath)
	if err != nil {
		return err
	}
	if *debugFlag {
		cfg.Debug = true
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)
	switch command {
	case cmdRun:
		err = a.Run(ctx)
	case cmdDumpDiff:
		err = a.DumpDifference(ctx)
	case cmdDumpImages:
		err = a.DumpImages(ctx, *dumpFreq)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
