package media

import "strings"

// ContainerFormat identifies a target container.
type ContainerFormat int

const (
	// FormatUnknown is returned by lookups that do not match a supported container.
	FormatUnknown ContainerFormat = iota
	FormatMP4
	FormatMKV
	FormatAVI
	FormatMOV
	FormatWebM
)

var formatOrder = []ContainerFormat{FormatMP4, FormatMKV, FormatAVI, FormatMOV, FormatWebM}

type formatInfo struct {
	label       string
	extension   string
	description string
}

var formatTable = map[ContainerFormat]formatInfo{
	FormatMP4:  {"MP4", "mp4", "MPEG-4 Part 14 - Widely supported format with good compression"},
	FormatMKV:  {"MKV", "mkv", "Matroska Video - Container format that can hold many codecs"},
	FormatAVI:  {"AVI", "avi", "Audio Video Interleave - Microsoft's container format"},
	FormatMOV:  {"MOV", "mov", "QuickTime File Format - Apple's container format"},
	FormatWebM: {"WEBM", "webm", "WebM - Open, royalty-free format designed for the web"},
}

// Formats returns the supported containers in presentation order.
func Formats() []ContainerFormat {
	out := make([]ContainerFormat, len(formatOrder))
	copy(out, formatOrder)
	return out
}

// Valid reports whether f is one of the supported containers.
func (f ContainerFormat) Valid() bool {
	_, ok := formatTable[f]
	return ok
}

// Label returns the canonical upper-case label (e.g. "MP4").
func (f ContainerFormat) Label() string {
	if info, ok := formatTable[f]; ok {
		return info.label
	}
	return "unknown"
}

// Extension returns the file extension without a leading dot.
func (f ContainerFormat) Extension() string {
	return formatTable[f].extension
}

// Description returns a human readable summary of the container.
func (f ContainerFormat) Description() string {
	return formatTable[f].description
}

func (f ContainerFormat) String() string {
	return f.Label()
}

// FormatFromExtension maps a file extension to its container. Matching is
// case-insensitive and a leading dot is ignored. Unsupported extensions
// yield FormatUnknown.
func FormatFromExtension(ext string) ContainerFormat {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return FormatUnknown
	}
	for _, f := range formatOrder {
		if formatTable[f].extension == ext {
			return f
		}
	}
	return FormatUnknown
}

// ParseFormat accepts either a label ("MKV") or an extension ("mkv", ".mkv").
func ParseFormat(value string) ContainerFormat {
	value = strings.TrimSpace(value)
	for _, f := range formatOrder {
		if strings.EqualFold(formatTable[f].label, value) {
			return f
		}
	}
	return FormatFromExtension(value)
}

// NextFormat cycles forward through Formats, wrapping at the end.
func NextFormat(f ContainerFormat) ContainerFormat {
	idx := formatIndex(f)
	return formatOrder[(idx+1)%len(formatOrder)]
}

// PrevFormat cycles backward through Formats, wrapping at the start.
func PrevFormat(f ContainerFormat) ContainerFormat {
	idx := formatIndex(f)
	if idx <= 0 {
		return formatOrder[len(formatOrder)-1]
	}
	return formatOrder[idx-1]
}

func formatIndex(f ContainerFormat) int {
	for i, candidate := range formatOrder {
		if candidate == f {
			return i
		}
	}
	return -1
}
