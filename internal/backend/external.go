package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vconv/internal/logging"
	"vconv/internal/media/ffprobe"
	"vconv/internal/progress"
	"vconv/internal/services"
)

var commandContext = exec.CommandContext

var probeDuration = ffprobe.Duration

// StderrTailLines is how many ffmpeg stderr lines are kept for error reports.
const StderrTailLines = 20

// ExternalBackend drives the ffmpeg command-line tool.
type ExternalBackend struct {
	FFmpeg  string
	FFprobe string
	Logger  *slog.Logger
}

// NewExternal returns a backend running the given ffmpeg and ffprobe binaries.
func NewExternal(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *ExternalBackend {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &ExternalBackend{
		FFmpeg:  ffmpegBinary,
		FFprobe: ffprobeBinary,
		Logger:  logging.NewComponentLogger(logger, "external"),
	}
}

// Run implements RunFunc.
func (e *ExternalBackend) Run(ctx context.Context, req Request, sink progress.Sender) error {
	if _, err := ValidateSource(req.SourcePath); err != nil {
		return err
	}
	if !req.Format.Valid() {
		return services.Wrap(services.ErrValidation, "external", "build args", fmt.Sprintf("unsupported format %s", req.Format), nil)
	}
	logger := e.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	dispatch(logger, req, sink, func(r *reporter) {
		e.convert(ctx, logger, req, r)
	})
	return nil
}

func (e *ExternalBackend) convert(ctx context.Context, logger *slog.Logger, req Request, r *reporter) {
	r.step(0, "Probing source duration...")
	parser := &progressParser{}
	if duration, err := probeDuration(ctx, e.FFprobe, req.SourcePath); err != nil {
		logger.Debug("duration unknown; progress percent will not advance",
			logging.String("source", req.SourcePath),
			logging.Error(err),
		)
	} else {
		parser.duration = duration
	}

	args := BuildArgs(req)
	logger.Debug("starting ffmpeg", logging.String("binary", e.FFmpeg), logging.Any("args", args))
	cmd := commandContext(ctx, e.FFmpeg, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.fail("FFmpeg error", fmt.Sprintf("Failed to start FFmpeg: %v", err))
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.fail("FFmpeg error", fmt.Sprintf("Failed to start FFmpeg: %v", err))
		return
	}
	if err := cmd.Start(); err != nil {
		r.fail("FFmpeg error", fmt.Sprintf("Failed to start FFmpeg: %v", err))
		return
	}
	r.step(0, "Converting with FFmpeg...")

	tail := newLineTail(StderrTailLines)
	started := time.Now()
	var group errgroup.Group
	group.Go(func() error {
		_, err := io.Copy(tail, stderr)
		return err
	})
	group.Go(func() error {
		return e.readProgress(stdout, parser, started, r)
	})
	if err := group.Wait(); err != nil {
		logger.Debug("ffmpeg output stream error", logging.Error(err))
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		r.cancelled()
		return
	}
	if waitErr != nil {
		message := DescribeExit(waitErr)
		logging.WarnWithContext(logger, "ffmpeg conversion failed", "ffmpeg_failed",
			logging.String("source", req.SourcePath),
			logging.String("detail", message),
			logging.Any("stderr_tail", tail.Lines()),
			logging.String(logging.FieldErrorHint, "check the ffmpeg output above and the source file"),
			logging.String(logging.FieldImpact, "conversion will fall back to the next backend"),
		)
		step := "FFmpeg error"
		if last := tail.Last(); last != "" {
			step = "FFmpeg error: " + last
		}
		r.fail(step, message)
		return
	}
	if !parser.ended {
		logger.Debug("ffmpeg exited without progress=end marker", logging.String("source", req.SourcePath))
	}
	r.complete("Conversion complete!")
}

// readProgress emits an event whenever the integer percent changes, or, with
// an unknown duration, whenever the elapsed encode position passes a new second.
func (e *ExternalBackend) readProgress(stdout io.Reader, parser *progressParser, started time.Time, r *reporter) error {
	scanner := bufio.NewScanner(stdout)
	lastPercent := -1
	var lastClock time.Duration = -1
	for scanner.Scan() {
		if !parser.feed(scanner.Text()) {
			continue
		}
		if parser.duration > 0 {
			pct := int(parser.percent())
			if pct > lastPercent {
				lastPercent = pct
				r.step(uint8(pct), fmt.Sprintf("Converting... %s / %s", formatClock(parser.outTime), formatClock(parser.duration)))
			}
			continue
		}
		clock := parser.outTime.Truncate(time.Second)
		if clock > lastClock {
			lastClock = clock
			r.step(0, fmt.Sprintf("Converting... %s encoded (%s elapsed, duration unknown)", formatClock(parser.outTime), formatClock(time.Since(started))))
		}
	}
	return scanner.Err()
}
