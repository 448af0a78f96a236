package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vconv/internal/backend"
	"vconv/internal/config"
	"vconv/internal/convert"
	"vconv/internal/fileutil"
	"vconv/internal/history"
	"vconv/internal/logging"
	"vconv/internal/media"
	"vconv/internal/metrics"
	"vconv/internal/preflight"
	"vconv/internal/progress"
	"vconv/internal/services"
)

type convertFlags struct {
	format     string
	resolution string
	bitrate    string
	frameRate  string
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a video file to another container format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := buildRequest(cfg, args[0], flags)
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			runCtx = services.WithRequestID(runCtx, uuid.NewString())
			return runConversion(runCtx, cmd, cfg, logging.NewComponentLogger(logger, "cli"), req)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format (mp4, mkv, avi, mov, webm)")
	cmd.Flags().StringVar(&flags.resolution, "resolution", "", "Output resolution (original, 720p, 1080p, 4k)")
	cmd.Flags().StringVar(&flags.bitrate, "bitrate", "", "Bitrate tier (auto, low, medium, high)")
	cmd.Flags().StringVar(&flags.frameRate, "fps", "", "Output frame rate (original, 24, 30, 60)")
	return cmd
}

// buildRequest resolves the source path and merges flags over the configured
// defaults.
func buildRequest(cfg *config.Config, source string, flags convertFlags) (backend.Request, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return backend.Request{}, fmt.Errorf("resolve %s: %w", source, err)
	}

	format := cfg.DefaultFormat()
	if value := strings.TrimSpace(flags.format); value != "" {
		format = media.ParseFormat(value)
		if !format.Valid() {
			return backend.Request{}, fmt.Errorf("unknown format %q (run `vconv formats` for the list)", value)
		}
	}

	settings := cfg.DefaultSettings()
	if flags.resolution != "" {
		if settings.Resolution, err = media.ParseResolution(flags.resolution); err != nil {
			return backend.Request{}, err
		}
	}
	if flags.bitrate != "" {
		if settings.Bitrate, err = media.ParseBitrate(flags.bitrate); err != nil {
			return backend.Request{}, err
		}
	}
	if flags.frameRate != "" {
		if settings.FrameRate, err = media.ParseFrameRate(flags.frameRate); err != nil {
			return backend.Request{}, err
		}
	}

	return backend.Request{
		SourcePath: abs,
		Format:     format,
		OutputPath: media.OutputPath(abs, format),
		Settings:   settings,
	}, nil
}

func runConversion(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, req backend.Request) error {
	if check := preflight.CheckOutputDirectory(req.OutputPath); !check.Passed {
		return fmt.Errorf("output directory not writable: %s", check.Detail)
	}
	lock, err := fileutil.LockOutput(cfg.LockDir(), req.OutputPath)
	if err != nil {
		if errors.Is(err, fileutil.ErrLocked) {
			return fmt.Errorf("another vconv process is writing %s", req.OutputPath)
		}
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release output lock failed", logging.Error(err))
		}
	}()

	stats := metrics.New()
	opts := []convert.Option{convert.WithObserver(stats)}
	if cfg.History.Enabled {
		store, err := history.Open(ctx, cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, convert.WithRecorder(store))
	}

	orchestrator := convert.New(cfg, logger, opts...)
	conv := orchestrator.Convert(ctx, req)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Converting %s -> %s\n", req.SourcePath, req.Format.Label())

	tracker := pollConversion(conv, cfg.PollInterval(), newProgressDisplay(out))
	orchestrator.Wait()

	if path := cfg.Metrics.Textfile; path != "" {
		if err := stats.WriteTextfile(path); err != nil {
			logging.WarnWithContext(logger, "metrics textfile write failed", "metrics_write_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics for this run are not exported"),
			)
		}
	}

	outcome := conv.Outcome()
	if tracker.Succeeded {
		if outcome.Backend == backend.Simulated.String() {
			fmt.Fprintf(out, "Simulated conversion finished (no file written) for %s\n", outcome.OutputPath)
		} else {
			fmt.Fprintf(out, "Wrote %s\n", outcome.OutputPath)
		}
		fmt.Fprintf(out, "Backend: %s (attempts: %d, elapsed: %s)\n",
			outcome.Backend, outcome.Attempts, outcome.Elapsed().Round(time.Millisecond))
		return nil
	}
	if outcome.Result == convert.ResultCancelled {
		return fmt.Errorf("conversion cancelled: %w", context.Canceled)
	}
	message := tracker.LastError
	if message == "" {
		message = outcome.ErrorMessage
	}
	return fmt.Errorf("conversion failed: %s", message)
}

// pollConversion drains the stream on every tick until a terminal event
// arrives or the conversion finishes.
func pollConversion(conv *convert.Conversion, interval time.Duration, display progressDisplay) *progress.Tracker {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tracker := &progress.Tracker{}
	finished := false
	for !tracker.Done && !finished {
		select {
		case <-ticker.C:
		case <-conv.Done():
			finished = true
		}
		tracker.Poll(conv, display.Update)
	}
	display.Close(tracker.Succeeded)
	return tracker
}
