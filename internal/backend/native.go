package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"vconv/internal/logging"
	"vconv/internal/media"
	"vconv/internal/progress"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 8192

// NativeBackend rewrites the source into a container-shaped placeholder file:
// a format header, audio and video blocks, the source bytes stamped with the
// format's frame marker, and a footer. The output is not playable media.
type NativeBackend struct {
	ChunkSize  int
	DelayScale float64
	// ReportInterval bounds how long chunk progress may stay silent.
	ReportInterval time.Duration
	Logger         *slog.Logger
}

// NewNative returns a native backend reading chunkSize bytes at a time.
func NewNative(chunkSize int, delayScale float64, logger *slog.Logger) *NativeBackend {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &NativeBackend{
		ChunkSize:      chunkSize,
		DelayScale:     delayScale,
		ReportInterval: 250 * time.Millisecond,
		Logger:         logging.NewComponentLogger(logger, "native"),
	}
}

// Run implements RunFunc.
func (n *NativeBackend) Run(ctx context.Context, req Request, sink progress.Sender) error {
	if _, err := ValidateSource(req.SourcePath); err != nil {
		return err
	}
	if !req.Format.Valid() {
		return fmt.Errorf("native: unsupported format %s", req.Format)
	}
	logger := n.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	chunkSize := n.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	dispatch(logger, req, sink, func(r *reporter) {
		n.convert(ctx, logger, req, chunkSize, r)
	})
	return nil
}

func (n *NativeBackend) convert(ctx context.Context, logger *slog.Logger, req Request, chunkSize int, r *reporter) {
	r.step(0, "Starting native conversion...")

	info, err := os.Stat(req.SourcePath)
	if err != nil {
		r.fail("Failed to read source", fmt.Sprintf("Stat error: %v", err))
		return
	}
	size := info.Size()

	src, err := os.Open(req.SourcePath)
	if err != nil {
		r.fail("Failed to open source", fmt.Sprintf("Open error: %v", err))
		return
	}
	defer src.Close()

	dst, err := os.Create(req.OutputPath)
	if err != nil {
		r.fail("Failed to create output", fmt.Sprintf("Create error: %v", err))
		return
	}
	defer dst.Close()

	layout := layoutFor(req.Format)
	reader := bufio.NewReader(src)
	writer := bufio.NewWriter(dst)

	r.step(5, "Analyzing video structure and metadata...")
	if pause(ctx, 500*time.Millisecond, n.DelayScale) != nil {
		r.cancelled()
		return
	}
	if _, err := writer.Write(layout.header); err != nil {
		r.fail("Failed to write container header", fmt.Sprintf("Header error: %v", err))
		return
	}

	r.step(10, "Extracting and decoding audio streams...")
	if pause(ctx, 800*time.Millisecond, n.DelayScale) != nil {
		r.cancelled()
		return
	}
	if _, err := writer.Write(layout.audio); err != nil {
		r.fail("Failed to write audio metadata", fmt.Sprintf("Audio metadata error: %v", err))
		return
	}

	r.step(15, "Processing video frames...")
	if _, err := writer.Write(layout.video); err != nil {
		r.fail("Failed to write video codec info", fmt.Sprintf("Video codec error: %v", err))
		return
	}

	interval := n.ReportInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	sometimes := rate.Sometimes{First: 1, Every: 10, Interval: interval}
	estimatedFrames := size / 4096
	buf := make([]byte, chunkSize)
	var bytesRead int64
	frame := 0
	for {
		if ctx.Err() != nil {
			r.cancelled()
			return
		}
		count, readErr := reader.Read(buf)
		if count > 0 {
			bytesRead += int64(count)
			frame++
			chunk := buf[:count]
			layout.stamp(chunk)
			percent := framePercent(bytesRead, size)
			sometimes.Do(func() {
				r.step(percent, fmt.Sprintf("Processing frame %d/%d (%.1f%%)", frame, estimatedFrames, float64(bytesRead)/float64(size)*100))
			})
			if _, err := writer.Write(chunk); err != nil {
				r.fail("Error writing video data", fmt.Sprintf("Write error: %v", err))
				return
			}
			if pause(ctx, 10*time.Millisecond, n.DelayScale) != nil {
				r.cancelled()
				return
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			r.fail("Error reading data", fmt.Sprintf("Read error: %v", readErr))
			return
		}
	}

	r.step(85, "Muxing audio and video streams...")
	if pause(ctx, 800*time.Millisecond, n.DelayScale) != nil {
		r.cancelled()
		return
	}

	r.step(95, "Finalizing container format...")
	if _, err := writer.Write(layout.footer); err != nil {
		r.fail("Failed to write container footer", fmt.Sprintf("Footer error: %v", err))
		return
	}
	if err := writer.Flush(); err != nil {
		r.fail("Failed to finalize output", fmt.Sprintf("Finalize error: %v", err))
		return
	}
	if err := dst.Close(); err != nil {
		r.fail("Failed to finalize output", fmt.Sprintf("Finalize error: %v", err))
		return
	}

	logger.Debug("native conversion finished",
		logging.String("output", req.OutputPath),
		logging.Int64("bytes", bytesRead),
		logging.Int("chunks", frame),
	)
	r.complete("Conversion complete!")
}

// framePercent maps bytes read onto the 15-85 band reserved for frame processing.
func framePercent(read, total int64) uint8 {
	p := 15 + int(progress.Percent(float64(read), float64(total)))*70/100
	if p > 85 {
		p = 85
	}
	return uint8(p)
}

// containerLayout holds the byte blocks written around the payload.
type containerLayout struct {
	header []byte
	audio  []byte
	video  []byte
	footer []byte
	marker []byte
	// trailer is written over the last bytes of each chunk (AVI only).
	trailer []byte
}

// stamp overwrites the leading bytes of chunk with the frame marker. Chunks
// of four bytes or fewer are left untouched.
func (l containerLayout) stamp(chunk []byte) {
	if len(chunk) <= 4 {
		return
	}
	copy(chunk, l.marker)
	if len(l.trailer) > 0 {
		copy(chunk[len(chunk)-len(l.trailer):], l.trailer)
	}
}

var (
	mp4Header  = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42mp41\x00\x00\x00\x01")
	mkvHeader  = []byte("\x1A\x45\xDF\xA3\x01\x00\x00\x00\x00\x00\x00\x23\x42\x86\x81\x01")
	aviHeader  = []byte("RIFF\x00\x00\x00\x00AVI LIST\x00\x00\x00\x00hdrlavih\x00\x00\x00\x00")
	movHeader  = []byte("\x00\x00\x00\x14ftyp\x71t  \x00\x00\x00\x00qt  \x00\x00\x00\x01")
	webmHeader = []byte("\x1A\x45\xDF\xA3\x01\x00\x00\x00\x00\x00\x00\x23\x42\x86\x81\x02")

	isoAudio  = []byte("\x00\x00\x00\x20mp4a\x00\x00\x00\x00\x00\x00\x00\x01\x00\x00\x00\x00\x00\x00\x00\x00")
	isoVideo  = []byte("\x00\x00\x00\x20avc1\x00\x00\x00\x00\x00\x00\x00\x01\x00\x00\x00\x00\x00\x00\x00\x00")
	ebmlClose = []byte("\x1F\x43\xB6\x75\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")
)

func layoutFor(format media.ContainerFormat) containerLayout {
	switch format {
	case media.FormatMKV:
		return containerLayout{
			header: mkvHeader,
			audio:  []byte("\xA3\x42\x86\x81\x01\x42\x87\x81\x02\x42\x85\x81\x02"),
			video:  []byte("\x86\x42\x87\x81\x04\x42\x85\x81\x02\x42\x86\x84\x77\x65\x62\x6D"),
			footer: ebmlClose,
			marker: []byte{0x1A, 0x45, 0xDF, 0xA3},
		}
	case media.FormatAVI:
		return containerLayout{
			header:  aviHeader,
			audio:   []byte("LIST\x00\x00\x00\x70strlstrh\x00\x00\x00\x38auds\x00\x00\x00\x00"),
			video:   []byte("LIST\x00\x00\x00\x70strlstrh\x00\x00\x00\x38vids\x00\x00\x00\x00"),
			footer:  []byte("idx1\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"),
			marker:  []byte{0xFF, 0xD8},
			trailer: []byte{0xFF, 0xD9},
		}
	case media.FormatMOV:
		return containerLayout{
			header: movHeader,
			audio:  isoAudio,
			video:  isoVideo,
			footer: []byte("\x00\x00\x00\x00moov\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"),
			marker: []byte{0x69, 0x63, 0x70, 0x66},
		}
	case media.FormatWebM:
		return containerLayout{
			header: webmHeader,
			audio:  []byte("\xA3\x42\x86\x81\x01\x42\x87\x81\x04\x42\x85\x81\x02"),
			video:  []byte("\x86\x42\x87\x81\x04\x42\x85\x81\x02\x42\x86\x84\x56\x50\x38\x30"),
			footer: ebmlClose,
			marker: []byte{0x56, 0x50, 0x39, 0x30},
		}
	default:
		return containerLayout{
			header: mp4Header,
			audio:  isoAudio,
			video:  isoVideo,
			footer: []byte("\x00\x00\x00\x14mdat\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"),
			marker: []byte{0x00, 0x00, 0x00, 0x01},
		}
	}
}
