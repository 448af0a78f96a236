package backend

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// progressParser folds ffmpeg `-progress` key=value lines into an encoded
// timestamp. Lines it does not understand are ignored.
type progressParser struct {
	duration time.Duration
	outTime  time.Duration
	ended    bool
}

// feed consumes one line and reports whether the encoded position advanced.
func (p *progressParser) feed(line string) bool {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	switch key {
	case "out_time_us", "out_time_ms":
		// ffmpeg reports both keys in microseconds.
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return false
		}
		return p.advance(time.Duration(us) * time.Microsecond)
	case "out_time":
		d, ok := parseClock(value)
		if !ok {
			return false
		}
		return p.advance(d)
	case "duration":
		secs, err := strconv.ParseFloat(value, 64)
		if err != nil || secs <= 0 {
			return false
		}
		p.duration = time.Duration(secs * float64(time.Second))
		return false
	case "progress":
		if value == "end" {
			p.ended = true
		}
		return false
	default:
		return false
	}
}

func (p *progressParser) advance(d time.Duration) bool {
	if d <= p.outTime {
		return false
	}
	p.outTime = d
	return true
}

// percent is 0 while the duration is unknown.
func (p *progressParser) percent() uint8 {
	if p.duration <= 0 {
		return 0
	}
	pct := float64(p.outTime) / float64(p.duration) * 100
	if pct >= 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return uint8(pct)
}

// parseClock parses HH:MM:SS[.fraction].
func parseClock(value string) (time.Duration, bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, false
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	return total + time.Duration(seconds*float64(time.Second)), true
}

// formatClock renders d as HH:MM:SS for step text.
func formatClock(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
