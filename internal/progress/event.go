package progress

import (
	"time"

	"vconv/internal/media"
)

// Event is a single progress report for one conversion request.
type Event struct {
	Percent      uint8
	Step         string
	SourcePath   string
	Format       media.ContainerFormat
	OutputPath   string
	IsComplete   bool
	HasError     bool
	ErrorMessage string
	Settings     *media.VideoSettings

	// Backend is the label of the attempt that produced the event. Empty for
	// request-level events.
	Backend string
	// Attempt is 1-based; 0 marks events emitted before the first attempt.
	Attempt int
	// Final is set on a failure after which nothing else is sent.
	Final bool
	Time  time.Time
}

// Terminal reports whether no further events follow e on its stream.
func (e Event) Terminal() bool {
	return e.IsComplete || (e.HasError && e.Final)
}

// Template carries the request fields copied onto every event.
type Template struct {
	SourcePath string
	Format     media.ContainerFormat
	OutputPath string
	Settings   *media.VideoSettings
}

// Step builds an in-progress event.
func (t Template) Step(percent uint8, step string) Event {
	return Event{
		Percent:    clampPercent(percent),
		Step:       step,
		SourcePath: t.SourcePath,
		Format:     t.Format,
		OutputPath: t.OutputPath,
		Settings:   t.Settings,
		Time:       time.Now(),
	}
}

// Complete builds the success event at 100%.
func (t Template) Complete(step string) Event {
	ev := t.Step(100, step)
	ev.IsComplete = true
	return ev
}

// Failure builds an error event. percent should be the last value reported so
// the attempt's sequence stays non-decreasing.
func (t Template) Failure(percent uint8, step, message string) Event {
	ev := t.Step(percent, step)
	ev.HasError = true
	ev.ErrorMessage = message
	return ev
}

func clampPercent(p uint8) uint8 {
	if p > 100 {
		return 100
	}
	return p
}

// Percent converts a fraction of done/total into a 0-100 value. Unknown or
// non-positive totals yield 0.
func Percent(done, total float64) uint8 {
	if total <= 0 || done <= 0 {
		return 0
	}
	p := done / total * 100
	if p >= 100 {
		return 100
	}
	return uint8(p)
}
