package convert

import (
	"time"

	"vconv/internal/media"
)

// State is a conversion's position in the fallback state machine.
type State int

const (
	Idle State = iota
	Probing
	Running
	Retrying
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Probing:
		return "probing"
	case Running:
		return "running"
	case Retrying:
		return "retrying"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

// Result labels stored with a finished conversion. Every label other than
// ResultSucceeded comes from services.FailureKind.
const (
	ResultSucceeded     = "succeeded"
	ResultFailed        = "failed"
	ResultInvalidInput  = "invalid_input"
	ResultCancelled     = "cancelled"
	ResultConfiguration = "configuration"
	ResultToolError     = "tool"
	ResultTimeout       = "timeout"
)

// Outcome summarizes a finished conversion for history and metrics.
type Outcome struct {
	ID         string
	SourcePath string
	OutputPath string
	Format     media.ContainerFormat
	Settings   media.VideoSettings
	// Backend is the label of the last attempted backend, empty when the
	// request was rejected before any attempt.
	Backend      string
	Attempts     int
	Result       string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Elapsed returns the wall time between request and terminal event.
func (o Outcome) Elapsed() time.Duration {
	if o.FinishedAt.Before(o.StartedAt) {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// Succeeded reports whether the conversion completed.
func (o Outcome) Succeeded() bool {
	return o.Result == ResultSucceeded
}
