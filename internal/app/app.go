// Package app wires the deskscribe subsystems into a running agent.
//
// The App struct owns the full lifecycle: New assembles the capture provider,
// window inspector, vision provider and description store, Run executes the
// capture loop (plus the detached audio recorder and the optional status
// listener), and Shutdown tears everything down.
//
// For testing, inject doubles via functional options (WithCapturer,
// WithInspector, ...). When an option is not provided, New creates the real
// implementation from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/MrWong99/deskscribe/internal/config"
	"github.com/MrWong99/deskscribe/internal/observe"
	"github.com/MrWong99/deskscribe/internal/persist"
	"github.com/MrWong99/deskscribe/pkg/audio"
	"github.com/MrWong99/deskscribe/pkg/capture"
	"github.com/MrWong99/deskscribe/pkg/provider/vision"
	"github.com/MrWong99/deskscribe/pkg/window"
)

// Providers holds the externally constructed backends. Populated by main.go
// via the config registry.
type Providers struct {
	// Vision describes screenshots. Required.
	Vision vision.Provider

	// Audio is the input backend. Nil disables recording.
	Audio audio.Source
}

// Capturer produces one screenshot frame on disk.
type Capturer interface {
	Capture(ctx context.Context) (capture.Frame, error)
}

// Saver writes the description text for a screenshot.
type Saver interface {
	Save(imageFilename, text string) (string, error)
}

// Result describes one completed iteration.
type Result struct {
	// ID identifies the iteration in logs.
	ID string

	// Frame is the captured screenshot.
	Frame capture.Frame

	// Text is the content written to the description file.
	Text string

	// DescriptionPath is where Text was written.
	DescriptionPath string
}

// Stage names used in logs and iteration metrics.
const (
	stageCapture  = "capture"
	stageDescribe = "describe"
	stagePersist  = "persist"
)

// App owns all subsystem lifetimes and runs the capture loop.
type App struct {
	cfg       *config.Config
	providers *Providers

	capturer  Capturer
	inspector window.Inspector
	store     Saver
	metrics   *observe.Metrics
	registry  *config.Registry
	prompt    audio.Prompt
	server    *statusServer

	// mu guards the hot-reloadable fields below.
	mu         sync.RWMutex
	vision     vision.Provider
	visionName string
	interval   time.Duration
	windowInfo bool

	lastIteration atomic.Int64 // unix nanos
	audioStarted  atomic.Bool
	audioDone     chan struct{}

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithCapturer injects a screenshot capturer instead of the screen grabber.
func WithCapturer(c Capturer) Option {
	return func(a *App) { a.capturer = c }
}

// WithInspector injects a window inspector instead of the system one.
func WithInspector(in window.Inspector) Option {
	return func(a *App) { a.inspector = in }
}

// WithStore injects the description store.
func WithStore(s Saver) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics injects a metrics instance instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithRegistry sets the registry used to rebuild the vision provider on hot
// reload. Without it, vision changes require a restart.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithPrompt sets the terminal used for interactive device selection.
func WithPrompt(p audio.Prompt) Option {
	return func(a *App) { a.prompt = p }
}

// WithInterval overrides the configured sleep between iterations.
func WithInterval(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.interval = d
		}
	}
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from cfg and the externally built providers. Nothing is
// started until Run.
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.Vision == nil {
		return nil, errors.New("app: vision provider is required")
	}
	a := &App{
		cfg:        cfg,
		providers:  providers,
		vision:     providers.Vision,
		visionName: cfg.Vision.Name,
		interval:   cfg.Capture.Interval(),
		windowInfo: cfg.Capture.WindowInfo,
		audioDone:  make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}

	if a.capturer == nil {
		a.capturer = capture.New(cfg.Capture.OutputDir, capture.NewScreenGrabber(cfg.Capture.Display))
	}
	if a.inspector == nil {
		a.inspector = window.NewSystemInspector()
	}
	if a.store == nil {
		a.store = persist.NewStore(cfg.Capture.OutputDir)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if cfg.Server.ListenAddr != "" {
		a.server = newStatusServer(cfg.Server.ListenAddr, a.metrics, a.readinessChecks())
	}

	return a, nil
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run starts the audio recorder (detached), the optional status listener and
// the capture loop, and blocks until ctx is cancelled. Iteration failures are
// logged and never end the loop. Run returns ctx.Err() on cancellation, or
// the status listener's error if it cannot serve.
func (a *App) Run(ctx context.Context) error {
	a.startAudio(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			serveErr <- a.server.serve(ctx)
			cancel()
		}()
	}

	slog.Info("capture loop running",
		"interval", a.Interval(),
		"output_dir", a.cfg.Capture.OutputDir,
		"provider", a.cfg.Vision.Name,
	)
	for {
		// Failures are logged by RunOnce.
		_, _ = a.RunOnce(ctx)

		timer := time.NewTimer(a.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			if a.server != nil {
				if err := <-serveErr; err != nil {
					return err
				}
			}
			return context.Cause(ctx)
		case <-timer.C:
		}
	}
}

// startAudio launches the recorder in its own goroutine when enabled. Its
// failure is logged only; the capture loop never depends on it.
func (a *App) startAudio(ctx context.Context) {
	if !a.audioStarted.CompareAndSwap(false, true) {
		return
	}
	if !a.cfg.Audio.Enabled || a.providers.Audio == nil {
		close(a.audioDone)
		return
	}

	opts := []audio.RecorderOption{
		audio.WithMaxSamples(a.cfg.Audio.MaxSamples),
		audio.WithSegmentHook(func(s audio.SegmentInfo) {
			a.metrics.RecordSegment(context.Background(), observe.SegmentFinalized, s.Samples)
			slog.Info("audio segment finalized", "path", s.Path, "samples", s.Samples)
		}),
	}
	if a.cfg.Audio.Downmix {
		opts = append(opts, audio.WithDownmix())
	}

	task := audio.TaskConfig{
		Source:          a.providers.Audio,
		Mode:            audio.SelectMode(a.cfg.Audio.DeviceMode),
		Prompt:          a.prompt,
		Dir:             a.cfg.Capture.OutputDir,
		Rotation:        a.cfg.Audio.Rotation(),
		RecorderOptions: opts,
	}

	go func() {
		defer close(a.audioDone)
		a.metrics.AudioRecording.Add(ctx, 1)
		defer a.metrics.AudioRecording.Add(context.WithoutCancel(ctx), -1)

		if err := audio.Task(ctx, task); err != nil && ctx.Err() == nil {
			slog.Error("audio recording stopped", "err", err)
		}
	}()
}

// ─── RunOnce ─────────────────────────────────────────────────────────────────

// RunOnce performs a single capture → inspect → describe → persist pass.
// A failed stage is logged and returned; later stages are skipped, so no
// description file is written when the description request fails.
func (a *App) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{ID: uuid.NewString()}
	ctx = observe.WithIteration(ctx, res.ID)
	ctx, span := observe.StartSpan(ctx, "deskscribe.iteration")
	defer span.End()
	log := observe.Logger(ctx)

	status := observe.StatusOK
	defer func() {
		a.metrics.RecordIteration(ctx, status, time.Since(start))
	}()

	fail := func(stage, s string, err error) (Result, error) {
		status = s
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		log.Error("iteration failed", "stage", stage, "err", err)
		return res, fmt.Errorf("app: %s: %w", stage, err)
	}

	// ── Capture ──────────────────────────────────────────────────────────
	capStart := time.Now()
	frame, err := a.capturer.Capture(ctx)
	a.metrics.CaptureDuration.Record(ctx, time.Since(capStart).Seconds())
	if err != nil {
		return fail(stageCapture, observe.StatusCaptureError, err)
	}
	res.Frame = frame
	log.Info("screenshot saved", "path", frame.Path, "width", frame.Width, "height", frame.Height)

	provider, name, withWindow := a.snapshot()

	// ── Window ───────────────────────────────────────────────────────────
	var block string
	if withWindow {
		block = window.Describe(ctx, a.inspector)
	}

	// ── Describe ─────────────────────────────────────────────────────────
	descStart := time.Now()
	text, err := provider.Describe(ctx, frame.PNG)
	if err != nil {
		a.metrics.RecordProviderRequest(ctx, name, "error", time.Since(descStart))
		a.metrics.RecordProviderError(ctx, name, errorKind(err))
		return fail(stageDescribe, observe.StatusDescribeErr, err)
	}
	a.metrics.RecordProviderRequest(ctx, name, "ok", time.Since(descStart))

	// ── Persist ──────────────────────────────────────────────────────────
	res.Text = persist.Compose(block, text)
	path, err := a.store.Save(frame.Filename, res.Text)
	if err != nil {
		return fail(stagePersist, observe.StatusPersistError, err)
	}
	res.DescriptionPath = path
	log.Info("description saved", "path", path, "chars", len(text))

	a.lastIteration.Store(time.Now().UnixNano())
	return res, nil
}

// errorKind classifies a vision error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, vision.ErrTransport):
		return "transport"
	case errors.Is(err, vision.ErrRemote):
		return "remote"
	case errors.Is(err, vision.ErrNoDescription):
		return "no_description"
	default:
		return "other"
	}
}

// snapshot returns the hot-reloadable state for one iteration.
func (a *App) snapshot() (vision.Provider, string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.vision, a.visionName, a.windowInfo
}

// Interval returns the current sleep between iterations.
func (a *App) Interval() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.interval
}

// LastIteration returns when the most recent successful iteration finished,
// or the zero time if none has.
func (a *App) LastIteration() time.Time {
	n := a.lastIteration.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown waits for the audio recorder to finalize its open segment. Run's
// context must already be cancelled; the status listener stops with it. If
// ctx expires first, the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down")
		if !a.audioStarted.Load() {
			return
		}
		select {
		case <-a.audioDone:
		case <-ctx.Done():
			slog.Warn("shutdown deadline exceeded waiting for audio recorder")
			shutdownErr = ctx.Err()
			return
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
