package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vconv/internal/logging"
	"vconv/internal/progress"
)

// SimulatedBackend walks through the phases of a conversion without touching
// the filesystem. It cannot fail except by cancellation.
type SimulatedBackend struct {
	// DelayScale multiplies every pause; 0 runs without sleeping.
	DelayScale float64
	Logger     *slog.Logger
}

// NewSimulated returns a simulated backend with the given pacing.
func NewSimulated(delayScale float64, logger *slog.Logger) *SimulatedBackend {
	return &SimulatedBackend{DelayScale: delayScale, Logger: logging.NewComponentLogger(logger, "simulated")}
}

// Run implements RunFunc.
func (s *SimulatedBackend) Run(ctx context.Context, req Request, sink progress.Sender) error {
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	dispatch(logger, req, sink, func(r *reporter) {
		phases := []struct {
			percent uint8
			step    string
			delay   time.Duration
		}{
			{0, "Analyzing video file...", 500 * time.Millisecond},
			{10, "Extracting audio stream...", time.Second},
		}
		for _, phase := range phases {
			r.step(phase.percent, phase.step)
			if pause(ctx, phase.delay, s.DelayScale) != nil {
				r.cancelled()
				return
			}
		}
		for frame := 20; frame <= 80; frame++ {
			r.step(uint8(frame), fmt.Sprintf("Converting video frame %d/100...", frame))
			if pause(ctx, 100*time.Millisecond, s.DelayScale) != nil {
				r.cancelled()
				return
			}
		}
		r.step(90, "Muxing audio and video streams...")
		if pause(ctx, 500*time.Millisecond, s.DelayScale) != nil {
			r.cancelled()
			return
		}
		r.step(100, "Finalizing output file...")
		if pause(ctx, 300*time.Millisecond, s.DelayScale) != nil {
			r.cancelled()
			return
		}
		r.complete("Conversion complete!")
		logger.Debug("simulated conversion finished", logging.String("source", req.SourcePath))
	})
	return nil
}
