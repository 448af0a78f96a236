package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vconv/internal/backend"
	"vconv/internal/config"
	"vconv/internal/logging"
	"vconv/internal/media"
	"vconv/internal/progress"
	"vconv/internal/services"
)

// Recorder persists finished conversions.
type Recorder interface {
	Record(ctx context.Context, outcome Outcome) error
}

// Observer receives counters for probes, fallbacks and finished conversions.
type Observer interface {
	ProbeResult(backend string, available bool)
	Fallback(from, to string)
	ConversionFinished(backend, result string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ProbeResult(string, bool)                         {}
func (nopObserver) Fallback(string, string)                          {}
func (nopObserver) ConversionFinished(string, string, time.Duration) {}

// Orchestrator selects a backend per request and supervises its attempts.
type Orchestrator struct {
	runners      map[backend.Kind]backend.RunFunc
	probes       map[backend.Kind]ProbeFunc
	probeTimeout time.Duration
	logger       *slog.Logger
	recorder     Recorder
	observer     Observer
	newID        func() string
	wg           sync.WaitGroup
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithRunner replaces the RunFunc for kind.
func WithRunner(kind backend.Kind, run backend.RunFunc) Option {
	return func(o *Orchestrator) {
		if run == nil {
			delete(o.runners, kind)
			return
		}
		o.runners[kind] = run
	}
}

// WithProbe replaces the availability probe for kind.
func WithProbe(kind backend.Kind, probe ProbeFunc) Option {
	return func(o *Orchestrator) {
		if probe == nil {
			delete(o.probes, kind)
			return
		}
		o.probes[kind] = probe
	}
}

// WithRecorder stores every outcome, typically in the history database.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithObserver reports probes, fallbacks and outcomes, typically to metrics.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithProbeTimeout bounds each availability probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.probeTimeout = d
		}
	}
}

// WithIDGenerator replaces the conversion ID source.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// New builds an orchestrator whose backends and probes come from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	logger = logging.NewComponentLogger(logger, "convert")
	backendLogger := logging.NewComponentLogger(logger, "backend")
	o := &Orchestrator{
		runners: map[backend.Kind]backend.RunFunc{
			backend.Native:    backend.NewNative(cfg.Backends.NativeChunkSize, cfg.Simulation.DelayScale, backendLogger).Run,
			backend.External:  backend.NewExternal(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, backendLogger).Run,
			backend.Simulated: backend.NewSimulated(cfg.Simulation.DelayScale, backendLogger).Run,
		},
		probes: map[backend.Kind]ProbeFunc{
			backend.Native:   nativeProbe(cfg),
			backend.External: externalProbe(cfg),
		},
		probeTimeout: cfg.ProbeTimeout(),
		logger:       logger,
		observer:     nopObserver{},
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Convert starts req and returns immediately. Every outcome, including an
// invalid request, is reported on the returned conversion's stream, which
// ends with exactly one terminal event. Cancelling ctx cancels the
// conversion. An empty OutputPath is derived from the source and format.
func (o *Orchestrator) Convert(ctx context.Context, req backend.Request) *Conversion {
	if req.OutputPath == "" && req.SourcePath != "" && req.Format.Valid() {
		req.OutputPath = media.OutputPath(req.SourcePath, req.Format)
	}
	id := o.newID()
	ctx = services.WithConversionID(ctx, id)
	ctx, cancel := context.WithCancel(ctx)
	conv := &Conversion{
		id:      id,
		request: req,
		stream:  progress.NewStream(),
		done:    make(chan struct{}),
		cancel:  cancel,
		state:   Idle,
	}
	o.wg.Add(1)
	go o.supervise(ctx, conv)
	return conv
}

// Wait blocks until every supervisor started by Convert has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) supervise(ctx context.Context, conv *Conversion) {
	defer o.wg.Done()
	defer close(conv.done)
	defer conv.cancel()

	req := conv.request
	tpl := req.Template()
	outcome := Outcome{
		ID:         conv.id,
		SourcePath: req.SourcePath,
		OutputPath: req.OutputPath,
		Format:     req.Format,
		Settings:   req.Settings,
		StartedAt:  time.Now(),
	}
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("conversion requested",
		logging.String("source", req.SourcePath),
		logging.String("output", req.OutputPath),
		logging.String("format", req.Format.Label()),
		logging.String("settings", req.Settings.String()),
	)

	if err := ValidateRequest(req); err != nil {
		ev := tpl.Failure(0, "Invalid input", err.Error())
		ev.Final = true
		conv.stream.Send(ev)
		outcome.Result = services.FailureKind(err)
		outcome.ErrorMessage = err.Error()
		o.finish(ctx, conv, logger, outcome)
		return
	}

	conv.stream.Send(tpl.Step(0, "Initializing conversion..."))
	conv.setState(Probing)
	rungs := ladder(o.Select(services.WithStage(ctx, "probe")))

	for i, kind := range rungs {
		attempt := i + 1
		conv.setRunning(kind)
		outcome.Backend = kind.String()
		outcome.Attempts = attempt
		attemptLogger := logger.With(
			logging.String(logging.FieldBackend, kind.String()),
			logging.Int(logging.FieldAttempt, attempt),
		)

		ev, cause := o.runAttempt(ctx, conv, kind, attempt, attemptLogger)
		if errors.Is(cause, services.ErrCancelled) {
			ev.Final = true
			conv.stream.Send(ev)
			attemptLogger.Info("conversion cancelled")
			outcome.Result = services.FailureKind(cause)
			outcome.ErrorMessage = ev.ErrorMessage
			o.finish(ctx, conv, logger, outcome)
			return
		}
		if cause == nil {
			conv.stream.Send(ev)
			outcome.Result = ResultSucceeded
			o.finish(ctx, conv, logger, outcome)
			return
		}

		if attempt == len(rungs) {
			ev.Final = true
			conv.stream.Send(ev)
			logging.ErrorWithContext(attemptLogger, "conversion failed", "conversion_failed",
				logging.String("error_message", ev.ErrorMessage),
				logging.String(logging.FieldErrorHint, "no backend left to try"),
			)
			outcome.Result = services.FailureKind(cause)
			outcome.ErrorMessage = ev.ErrorMessage
			o.finish(ctx, conv, logger, outcome)
			return
		}

		next := rungs[i+1]
		conv.stream.Send(ev)
		notice := tpl.Failure(ev.Percent, fmt.Sprintf("%s failed, falling back to %s", kind, next), ev.ErrorMessage)
		notice.Backend = ev.Backend
		notice.Attempt = ev.Attempt
		conv.stream.Send(notice)
		conv.setState(Retrying)
		o.observer.Fallback(kind.String(), next.String())
		logging.WarnWithContext(attemptLogger, "backend failed; falling back", "backend_fallback",
			logging.String("error_message", ev.ErrorMessage),
			logging.String("fallback", next.String()),
			logging.String(logging.FieldImpact, "output comes from a lower-priority backend"),
		)
	}
}

// runAttempt starts kind and waits for its terminal event. cause is nil when
// the attempt completed; it wraps services.ErrCancelled when ctx ended first,
// in which case the returned event is the cancellation error.
func (o *Orchestrator) runAttempt(ctx context.Context, conv *Conversion, kind backend.Kind, attempt int, logger *slog.Logger) (ev progress.Event, cause error) {
	tpl := conv.request.Template()
	sender := newAttemptSender(conv.stream, kind.String(), attempt)
	defer sender.retire()

	attemptCtx, cancel := context.WithCancel(services.WithBackend(services.WithStage(ctx, "run"), kind.String()))
	defer cancel()

	cancelled := func() (progress.Event, error) {
		sender.retire()
		ev := sender.stamp(tpl.Failure(sender.lastPercent(), "Cancelled", "Conversion cancelled"))
		return ev, services.Wrap(services.ErrCancelled, "convert", kind.String(), "conversion cancelled", context.Cause(ctx))
	}
	if ctx.Err() != nil {
		return cancelled()
	}

	logger.Info("attempt started")
	if err := o.start(attemptCtx, kind, conv.request, sender); err != nil {
		sender.retire()
		if ctx.Err() != nil {
			return cancelled()
		}
		logger.Debug("backend setup failed", logging.Error(err))
		return sender.stamp(tpl.Failure(0, "Failed to start "+kind.String(), err.Error())), err
	}

	select {
	case ev = <-sender.terminal:
		if ctx.Err() == nil {
			if ev.IsComplete {
				return ev, nil
			}
			return ev, services.Wrap(services.ErrTransient, "convert", kind.String(), ev.ErrorMessage, nil)
		}
	case <-ctx.Done():
	}
	return cancelled()
}

// start invokes kind's RunFunc, turning a panic during setup into an error.
func (o *Orchestrator) start(ctx context.Context, kind backend.Kind, req backend.Request, sink progress.Sender) (err error) {
	run, ok := o.runners[kind]
	if !ok {
		return services.Wrap(services.ErrConfiguration, "convert", "start", kind.String()+" backend not configured", nil)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("backend crashed: %v", rec)
		}
	}()
	return run(ctx, req, sink)
}

func (o *Orchestrator) finish(ctx context.Context, conv *Conversion, logger *slog.Logger, outcome Outcome) {
	outcome.FinishedAt = time.Now()
	conv.finish(outcome)
	o.observer.ConversionFinished(outcome.Backend, outcome.Result, outcome.Elapsed())
	if o.recorder != nil {
		if err := o.recorder.Record(context.WithoutCancel(ctx), outcome); err != nil {
			logging.WarnWithContext(logger, "history record failed", "history_record_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the state_dir permissions"),
				logging.String(logging.FieldImpact, "conversion missing from vconv history"),
			)
		}
	}
	logger.Info("conversion finished",
		logging.String("result", outcome.Result),
		logging.String(logging.FieldBackend, outcome.Backend),
		logging.Int("attempts", outcome.Attempts),
		logging.Duration("elapsed", outcome.Elapsed()),
	)
}

// ladder returns the backends to try when the probe selected kind.
func ladder(selected backend.Kind) []backend.Kind {
	if selected == backend.Simulated {
		return []backend.Kind{backend.Simulated}
	}
	return []backend.Kind{selected, backend.Simulated}
}
