// Package flightrecorder keeps a rolling runtime trace and writes it to disk when a request goes wrong.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"

	"github.com/dubovds/workout-tracker/internal/contexthelpers"
	"github.com/dubovds/workout-tracker/internal/errors"
)

const (
	defaultMinAge   = 2 * time.Minute
	defaultMaxBytes = 16 * 1024 * 1024
	// defaultCooldown is the minimum time between two captures.
	defaultCooldown = 30 * time.Minute
)

// Recorder wraps a [trace.FlightRecorder] and rate limits the captures written to the traces directory.
type Recorder struct {
	logger          *slog.Logger
	flightRecorder  *trace.FlightRecorder
	tracesDirectory string
	cooldown        time.Duration
	now             func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

// Config configures a [Recorder]. Zero durations and sizes select the defaults.
type Config struct {
	Logger          *slog.Logger
	TracesDirectory string
	MinAge          time.Duration
	MaxBytes        uint64
	Cooldown        time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// New creates a recorder writing to cfg.TracesDirectory, which is created if missing.
func New(cfg Config) (*Recorder, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.TracesDirectory == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.TracesDirectory, 0o700); err != nil { //nolint:mnd // owner only
		return nil, errors.Wrap(err, "create traces directory", slog.String("dir", cfg.TracesDirectory))
	}
	if stat, err := os.Stat(cfg.TracesDirectory); err != nil || !stat.IsDir() {
		return nil, errors.New("traces path is not a directory", slog.String("dir", cfg.TracesDirectory))
	}

	flightRecorderCfg := trace.FlightRecorderConfig{MinAge: defaultMinAge, MaxBytes: defaultMaxBytes}
	if cfg.MinAge > 0 {
		flightRecorderCfg.MinAge = cfg.MinAge
	}
	if cfg.MaxBytes > 0 {
		flightRecorderCfg.MaxBytes = cfg.MaxBytes
	}
	r := &Recorder{
		logger:          cfg.Logger,
		flightRecorder:  trace.NewFlightRecorder(flightRecorderCfg),
		tracesDirectory: cfg.TracesDirectory,
		cooldown:        defaultCooldown,
		now:             time.Now,
	}
	if cfg.Cooldown > 0 {
		r.cooldown = cfg.Cooldown
	}
	if cfg.Now != nil {
		r.now = cfg.Now
	}
	return r, nil
}

// Start begins recording.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.flightRecorder.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("dir", r.tracesDirectory), slog.Duration("cooldown", r.cooldown))
	return nil
}

// Stop ends recording.
func (r *Recorder) Stop(ctx context.Context) {
	r.flightRecorder.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the recorded trace to "<reason>-<timestamp>[-<trace id>].trace" and returns the path. Nothing
// is written within the cooldown of the previous capture, in which case ok is false.
func (r *Recorder) Capture(ctx context.Context, reason string) (path string, ok bool) {
	now := r.now()
	if !r.claim(now) {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture due to cooldown",
			slog.String("reason", reason))
		return "", false
	}

	name := reason + "-" + now.UTC().Format("20060102-150405")
	if traceID := contexthelpers.TraceID(ctx); traceID != "" {
		name += "-" + traceID
	}
	path = filepath.Join(r.tracesDirectory, name+".trace")
	if err := r.writeTrace(path); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to capture trace", errors.SlogError(err))
		return "", false
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace", slog.String("file", path), slog.String("reason", reason))
	return path, true
}

func (r *Recorder) claim(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.lastCapture.IsZero() && now.Sub(r.lastCapture) < r.cooldown {
		return false
	}
	r.lastCapture = now
	return true
}

func (r *Recorder) writeTrace(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create trace file", slog.String("file", path))
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close trace file"))
		}
	}()
	if _, err = r.flightRecorder.WriteTo(file); err != nil {
		return errors.Wrap(err, "write trace", slog.String("file", path))
	}
	return nil
}
