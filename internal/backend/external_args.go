package backend

import (
	"fmt"
	"strconv"

	"vconv/internal/media"
)

// codecProfile returns the encoder arguments used for each container.
func codecProfile(format media.ContainerFormat) []string {
	switch format {
	case media.FormatMP4:
		return []string{"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-c:a", "aac", "-b:a", "128k"}
	case media.FormatMKV:
		return []string{"-c:v", "libx264", "-preset", "slow", "-crf", "18", "-c:a", "copy"}
	case media.FormatAVI:
		return []string{"-c:v", "mpeg4", "-q:v", "6", "-c:a", "libmp3lame", "-q:a", "4"}
	case media.FormatMOV:
		return []string{"-c:v", "prores_ks", "-profile:v", "3", "-c:a", "pcm_s16le"}
	case media.FormatWebM:
		return []string{"-c:v", "libvpx-vp9", "-crf", "30", "-b:v", "0", "-c:a", "libopus", "-b:a", "96k"}
	default:
		return nil
	}
}

// BuildArgs assembles the ffmpeg argument list for req. Settings other than
// Original/Auto are appended after the codec profile so they take precedence.
func BuildArgs(req Request) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", req.SourcePath}
	args = append(args, codecProfile(req.Format)...)
	if w, h, ok := req.Settings.Resolution.Dimensions(); ok {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", w, h))
	}
	if kbps := req.Settings.Kbps(); kbps > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", kbps))
	}
	if fps, ok := req.Settings.FrameRate.FPS(); ok {
		args = append(args, "-r", strconv.Itoa(fps))
	}
	args = append(args, "-progress", "pipe:1", "-nostats", req.OutputPath)
	return args
}
