package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"vconv/internal/logging"
	"vconv/internal/media"
	"vconv/internal/progress"
	"vconv/internal/services"
)

// Kind is a conversion backend, ranked by preference.
type Kind int

const (
	Native Kind = iota
	External
	Simulated
)

// Kinds returns every backend in priority order.
func Kinds() []Kind {
	return []Kind{Native, External, Simulated}
}

func (k Kind) String() string {
	switch k {
	case Native:
		return "Native"
	case External:
		return "External"
	case Simulated:
		return "Simulated"
	default:
		return "unknown"
	}
}

// Describe returns the operator-facing name shown in status output.
func (k Kind) Describe() string {
	switch k {
	case Native:
		return "Built-in placeholder converter"
	case External:
		return "FFmpeg command-line encoder"
	case Simulated:
		return "Simulated conversion, no output written"
	default:
		return "unknown"
	}
}

// Request is one conversion handed to a backend.
type Request struct {
	SourcePath string
	Format     media.ContainerFormat
	OutputPath string
	Settings   media.VideoSettings
}

// Template returns the event fields shared by every report for r.
func (r Request) Template() progress.Template {
	settings := r.Settings
	return progress.Template{
		SourcePath: r.SourcePath,
		Format:     r.Format,
		OutputPath: r.OutputPath,
		Settings:   &settings,
	}
}

// RunFunc starts a conversion. It returns an error only for setup failures
// detected before any work is dispatched; every other outcome is reported on
// sink, ending with exactly one complete or error event.
type RunFunc func(ctx context.Context, req Request, sink progress.Sender) error

// ValidateSource checks that path names an existing regular file.
func ValidateSource(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "backend", "validate source", "source path required", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "backend", "validate source", fmt.Sprintf("source %q does not exist", path), err)
		}
		return nil, services.Wrap(services.ErrValidation, "backend", "validate source", "stat source", err)
	}
	if !info.Mode().IsRegular() {
		return nil, services.Wrap(services.ErrValidation, "backend", "validate source", fmt.Sprintf("source %q is not a regular file", path), nil)
	}
	return info, nil
}

// reporter emits one attempt's events. It holds percent non-decreasing and
// guarantees a single terminal event.
type reporter struct {
	sink progress.Sender
	tpl  progress.Template
	last uint8
	done bool
}

func (r *reporter) step(percent uint8, step string) {
	if r.done {
		return
	}
	if percent < r.last {
		percent = r.last
	}
	r.last = percent
	r.sink.Send(r.tpl.Step(percent, step))
}

func (r *reporter) complete(step string) {
	if r.done {
		return
	}
	r.done = true
	r.last = 100
	r.sink.Send(r.tpl.Complete(step))
}

func (r *reporter) fail(step, message string) {
	if r.done {
		return
	}
	r.done = true
	r.sink.Send(r.tpl.Failure(r.last, step, message))
}

// cancelled reports ctx cancellation as the attempt's terminal error.
func (r *reporter) cancelled() {
	r.fail("Cancelled", "Conversion cancelled")
}

// dispatch runs work on its own goroutine. A panic, or returning without a
// terminal event, is turned into an error event.
func dispatch(logger *slog.Logger, req Request, sink progress.Sender, work func(r *reporter)) {
	r := &reporter{sink: sink, tpl: req.Template()}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("backend panicked",
					logging.String(logging.FieldEventType, "backend_panic"),
					logging.Any("panic", rec),
				)
				r.fail("Internal error", fmt.Sprintf("backend crashed: %v", rec))
				return
			}
			if !r.done {
				r.fail("Internal error", "backend finished without a result")
			}
		}()
		work(r)
	}()
}

// pause sleeps for d scaled by scale, returning early with ctx's error.
func pause(ctx context.Context, d time.Duration, scale float64) error {
	if scale <= 0 || d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(float64(d) * scale))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
