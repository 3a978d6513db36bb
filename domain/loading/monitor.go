package loading

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/chaoticbyte/loadsplit/config"
	"github.com/chaoticbyte/loadsplit/domain/frame"
	"github.com/chaoticbyte/loadsplit/libresplit"
)

const statsLogInterval = 10 * time.Second

// Monitor drives the detection loop: capture, filter, score against every
// reference, edge-detect, dispatch. Everything runs on the goroutine that
// calls Run; state is never touched concurrently.
type Monitor struct {
	cfg    *config.Profile
	logger *slog.Logger
	refs   []Reference
	grab   Grabber
	sink   CommandSink
	scorer frame.Scorer

	state      State
	dumpScores bool
	out        io.Writer
	listeners  []TransitionListener

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)

	ticks        uint64
	matchTicks   uint64
	sendFailures uint64
	lastStatsLog time.Time
}

// NewMonitor wires a detection loop. The reference set must already be
// loaded; the scorer is resolved from the profile's method tag here so an
// unsupported method can never reach a tick.
func NewMonitor(cfg *config.Profile, logger *slog.Logger, refs []Reference, grab Grabber, sink CommandSink) (*Monitor, error) {
	if len(refs) == 0 {
		return nil, config.ErrNoReferences
	}
	scorer, err := frame.ScorerFor(cfg.Method)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		cfg:    cfg,
		logger: logger,
		refs:   refs,
		grab:   grab,
		sink:   sink,
		scorer: scorer,
		state:  StateNotLoading,
		out:    os.Stdout,
		now:    time.Now,
		sleep:  time.Sleep,
	}, nil
}

// DumpScores switches the loop into diagnostic mode: every per-reference
// score is printed and no commands are dispatched.
func (m *Monitor) DumpScores(on bool) { m.dumpScores = on }

// AddListener registers a transition callback. Call before Run.
func (m *Monitor) AddListener(l TransitionListener) { m.listeners = append(m.listeners, l) }

// State returns the current detection state.
func (m *Monitor) State() State { return m.state }

// Run ticks until the context is cancelled or a fatal error occurs. Each
// tick measures its own cost and sleeps the remainder of the target
// interval, so the loop self-paces instead of assuming a fixed tick cost.
// Ticks never overlap and are never skipped.
func (m *Monitor) Run(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / m.cfg.TargetRate)
	m.lastStatsLog = m.now()
	m.logger.Info("detection loop started",
		"references", len(m.refs),
		"method", m.cfg.Method.String(),
		"threshold", m.cfg.Threshold,
		"target_rate_hz", m.cfg.TargetRate,
	)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("detection loop stopped", "ticks", m.ticks)
			return ctx.Err()
		default:
		}
		start := m.now()
		if err := m.tick(); err != nil {
			if m.cfg.OnError == config.PolicyRetry && !errors.Is(err, frame.ErrDimensionMismatch) {
				m.logger.Error("tick failed, retrying next tick", "error", err)
			} else {
				return fmt.Errorf("tick %d: %w", m.ticks, err)
			}
		}
		m.ticks++
		m.maybeLogStats()
		if d := interval - m.now().Sub(start); d > 0 {
			m.sleep(d)
		}
	}
}

func (m *Monitor) tick() error {
	img, err := m.grab.Grab()
	if err != nil {
		return err
	}
	buf, err := frame.FromRGBA(img)
	if err != nil {
		return err
	}
	buf = frame.ApplyFilters(buf, m.cfg.Filters)

	if m.dumpScores {
		return m.dumpTick(buf)
	}

	anyMatch := false
	for _, ref := range m.refs {
		score, err := m.scoreAgainst(ref, buf)
		if err != nil {
			return err
		}
		// References are a logical OR; the first match settles the tick.
		if frame.IsMatch(score, m.cfg.Threshold) {
			anyMatch = true
			break
		}
	}
	if anyMatch {
		m.matchTicks++
	}
	m.applyEdge(anyMatch)
	return nil
}

// scoreAgainst masks a copy of the shared per-tick buffer when the reference
// carries a mask, then scores. The shared buffer itself is never mutated.
func (m *Monitor) scoreAgainst(ref Reference, buf frame.Buffer) (float64, error) {
	cur := buf
	if ref.Mask != nil {
		var err error
		cur, err = frame.ApplyMask(buf, *ref.Mask)
		if err != nil {
			return 0, fmt.Errorf("mask for %s: %w", ref.Path, err)
		}
	}
	score, err := m.scorer(ref.Pixels, cur)
	if err != nil {
		return 0, fmt.Errorf("score against %s: %w", ref.Path, err)
	}
	return score, nil
}

func (m *Monitor) dumpTick(buf frame.Buffer) error {
	for _, ref := range m.refs {
		score, err := m.scoreAgainst(ref, buf)
		if err != nil {
			return err
		}
		fmt.Fprintln(m.out, score)
	}
	return nil
}

// applyEdge fires only when the aggregate match predicate flips. Repeated
// matches while already loading are no-ops, so emitted commands strictly
// alternate stop-reset / start-split.
func (m *Monitor) applyEdge(anyMatch bool) {
	var next State
	var cmd libresplit.Command
	switch {
	case anyMatch && m.state == StateNotLoading:
		next, cmd = StateLoading, libresplit.CmdStopReset
	case !anyMatch && m.state == StateLoading:
		next, cmd = StateNotLoading, libresplit.CmdStartSplit
	default:
		return
	}
	prev := m.state
	m.state = next
	fmt.Fprintln(m.out, next.String())
	m.logger.Info("state transition", "from", prev.String(), "to", next.String(), "command", cmd.String())
	// A failed dispatch is logged and swallowed: the transition already
	// happened and the loop must keep its pace. One attempt per edge.
	if err := m.sink.Send(cmd); err != nil {
		m.sendFailures++
		m.logger.Error("command dispatch failed", "command", cmd.String(), "error", err)
	}
	for _, l := range m.listeners {
		l(prev, next)
	}
}

func (m *Monitor) maybeLogStats() {
	now := m.now()
	if now.Sub(m.lastStatsLog) < statsLogInterval {
		return
	}
	m.lastStatsLog = now
	m.logger.Debug("loop.stats",
		"ticks", m.ticks,
		"match_ticks", m.matchTicks,
		"send_failures", m.sendFailures,
		"state", m.state.String(),
	)
}
