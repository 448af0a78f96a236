package media

import (
	"fmt"
	"strings"
)

// Resolution selects the output frame size.
type Resolution int

const (
	ResolutionOriginal Resolution = iota
	Resolution720p
	Resolution1080p
	Resolution4K
	resolutionCount
)

var resolutionLabels = [...]string{"Original", "720p", "1080p", "4K"}

func (r Resolution) String() string {
	if r < 0 || r >= resolutionCount {
		return "unknown"
	}
	return resolutionLabels[r]
}

// Dimensions returns the pixel size for r. Original has no fixed size.
func (r Resolution) Dimensions() (width, height int, ok bool) {
	switch r {
	case Resolution720p:
		return 1280, 720, true
	case Resolution1080p:
		return 1920, 1080, true
	case Resolution4K:
		return 3840, 2160, true
	default:
		return 0, 0, false
	}
}

func (r Resolution) Next() Resolution { return Resolution(cycle(int(r), int(resolutionCount), 1)) }

func (r Resolution) Prev() Resolution { return Resolution(cycle(int(r), int(resolutionCount), -1)) }

// Bitrate selects a target quality tier.
type Bitrate int

const (
	BitrateAuto Bitrate = iota
	BitrateLow
	BitrateMedium
	BitrateHigh
	bitrateCount
)

// DefaultKbps is returned for tier/resolution pairs missing from the table.
const DefaultKbps = 6000

var bitrateLabels = [...]string{"Auto", "Low", "Medium", "High"}

var bitrateTable = map[Bitrate]map[Resolution]int{
	BitrateLow:    {Resolution720p: 1500, Resolution1080p: 3000, Resolution4K: 8000},
	BitrateMedium: {Resolution720p: 2500, Resolution1080p: 6000, Resolution4K: 12000},
	BitrateHigh:   {Resolution720p: 4000, Resolution1080p: 8000, Resolution4K: 18000},
}

func (b Bitrate) String() string {
	if b < 0 || b >= bitrateCount {
		return "unknown"
	}
	return bitrateLabels[b]
}

// Kbps resolves the tier against a resolution. Auto yields 0, meaning the
// backend picks its own rate; combinations outside the table yield DefaultKbps.
func (b Bitrate) Kbps(res Resolution) int {
	if b == BitrateAuto {
		return 0
	}
	if kbps, ok := bitrateTable[b][res]; ok {
		return kbps
	}
	return DefaultKbps
}

func (b Bitrate) Next() Bitrate { return Bitrate(cycle(int(b), int(bitrateCount), 1)) }

func (b Bitrate) Prev() Bitrate { return Bitrate(cycle(int(b), int(bitrateCount), -1)) }

// FrameRate selects the output frame rate.
type FrameRate int

const (
	FrameRateOriginal FrameRate = iota
	FrameRate24
	FrameRate30
	FrameRate60
	frameRateCount
)

var frameRateLabels = [...]string{"Original", "24 fps", "30 fps", "60 fps"}

func (f FrameRate) String() string {
	if f < 0 || f >= frameRateCount {
		return "unknown"
	}
	return frameRateLabels[f]
}

// FPS returns the numeric rate. Original keeps the source rate.
func (f FrameRate) FPS() (int, bool) {
	switch f {
	case FrameRate24:
		return 24, true
	case FrameRate30:
		return 30, true
	case FrameRate60:
		return 60, true
	default:
		return 0, false
	}
}

func (f FrameRate) Next() FrameRate { return FrameRate(cycle(int(f), int(frameRateCount), 1)) }

func (f FrameRate) Prev() FrameRate { return FrameRate(cycle(int(f), int(frameRateCount), -1)) }

// VideoSettings bundles the user-adjustable output parameters.
type VideoSettings struct {
	Resolution Resolution
	Bitrate    Bitrate
	FrameRate  FrameRate
}

// DefaultSettings keeps the source resolution and frame rate and lets the
// backend choose a bitrate.
func DefaultSettings() VideoSettings {
	return VideoSettings{
		Resolution: ResolutionOriginal,
		Bitrate:    BitrateAuto,
		FrameRate:  FrameRateOriginal,
	}
}

// Kbps is shorthand for Bitrate.Kbps(Resolution).
func (s VideoSettings) Kbps() int {
	return s.Bitrate.Kbps(s.Resolution)
}

func (s VideoSettings) String() string {
	return fmt.Sprintf("resolution=%s bitrate=%s frame_rate=%s", s.Resolution, s.Bitrate, s.FrameRate)
}

// SettingField names one adjustable field of VideoSettings.
type SettingField int

const (
	SettingResolution SettingField = iota
	SettingBitrate
	SettingFrameRate
	settingFieldCount
)

func (f SettingField) String() string {
	switch f {
	case SettingResolution:
		return "Resolution"
	case SettingBitrate:
		return "Bitrate"
	case SettingFrameRate:
		return "Frame Rate"
	default:
		return "unknown"
	}
}

func (f SettingField) Next() SettingField {
	return SettingField(cycle(int(f), int(settingFieldCount), 1))
}

func (f SettingField) Prev() SettingField {
	return SettingField(cycle(int(f), int(settingFieldCount), -1))
}

// Cycle steps one field forward (increase) or backward, wrapping at both ends.
func (s *VideoSettings) Cycle(field SettingField, increase bool) {
	switch field {
	case SettingResolution:
		if increase {
			s.Resolution = s.Resolution.Next()
		} else {
			s.Resolution = s.Resolution.Prev()
		}
	case SettingBitrate:
		if increase {
			s.Bitrate = s.Bitrate.Next()
		} else {
			s.Bitrate = s.Bitrate.Prev()
		}
	case SettingFrameRate:
		if increase {
			s.FrameRate = s.FrameRate.Next()
		} else {
			s.FrameRate = s.FrameRate.Prev()
		}
	}
}

// ParseResolution accepts "original", "720p", "1080p", "4k" and "2160p".
func ParseResolution(value string) (Resolution, error) {
	switch normalizeToken(value) {
	case "", "original", "source":
		return ResolutionOriginal, nil
	case "720p", "720", "hd":
		return Resolution720p, nil
	case "1080p", "1080", "fullhd":
		return Resolution1080p, nil
	case "4k", "2160p", "2160", "uhd":
		return Resolution4K, nil
	default:
		return ResolutionOriginal, fmt.Errorf("unknown resolution %q", value)
	}
}

// ParseBitrate accepts "auto", "low", "medium" and "high".
func ParseBitrate(value string) (Bitrate, error) {
	switch normalizeToken(value) {
	case "", "auto":
		return BitrateAuto, nil
	case "low":
		return BitrateLow, nil
	case "medium", "med":
		return BitrateMedium, nil
	case "high":
		return BitrateHigh, nil
	default:
		return BitrateAuto, fmt.Errorf("unknown bitrate %q", value)
	}
}

// ParseFrameRate accepts "original", "24", "30", "60" with an optional "fps" suffix.
func ParseFrameRate(value string) (FrameRate, error) {
	token := strings.TrimSuffix(normalizeToken(value), "fps")
	switch token {
	case "", "original", "source":
		return FrameRateOriginal, nil
	case "24":
		return FrameRate24, nil
	case "30":
		return FrameRate30, nil
	case "60":
		return FrameRate60, nil
	default:
		return FrameRateOriginal, fmt.Errorf("unknown frame rate %q", value)
	}
}

func normalizeToken(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "")
}

func cycle(value, count, step int) int {
	if value < 0 || value >= count {
		value = 0
	}
	return ((value+step)%count + count) % count
}
