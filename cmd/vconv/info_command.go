package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"vconv/internal/media"
	"vconv/internal/media/ffprobe"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Inspect a video file with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			result, err := ffprobe.Inspect(cmd.Context(), cfg.Tools.FFprobe, path)
			if err != nil {
				return err
			}
			writeInfo(cmd.OutOrStdout(), path, result)
			return nil
		},
	}
}

func writeInfo(out io.Writer, path string, result ffprobe.Result) {
	row := func(label, value string) {
		fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, label+":", value)
	}
	row("File", path)
	row("Detected format", media.FormatFromExtension(filepath.Ext(path)).Label())
	if name := result.Format.FormatName; name != "" {
		row("Container", name)
	}
	if seconds := result.DurationSeconds(); seconds > 0 {
		row("Duration", (time.Duration(seconds * float64(time.Second))).Round(time.Millisecond).String())
	}
	if size := result.SizeBytes(); size > 0 {
		row("Size", humanSize(size))
	}
	if video, ok := result.VideoStream(); ok {
		detail := video.CodecName
		if video.Width > 0 && video.Height > 0 {
			detail += fmt.Sprintf(" %dx%d", video.Width, video.Height)
		}
		if fps := video.FrameRate(); fps > 0 {
			detail += fmt.Sprintf(" @ %.2f fps", fps)
		}
		row("Video", detail)
	} else {
		row("Video", "none")
	}
	row("Audio streams", fmt.Sprintf("%d", result.AudioStreamCount()))
}
