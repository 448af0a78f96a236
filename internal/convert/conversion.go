package convert

import (
	"context"
	"sync"

	"vconv/internal/backend"
	"vconv/internal/progress"
)

// Conversion is the caller's handle on one request.
type Conversion struct {
	id      string
	request backend.Request
	stream  *progress.Stream
	done    chan struct{}
	cancel  context.CancelFunc

	mu      sync.Mutex
	state   State
	backend string
	outcome Outcome
}

// ID returns the conversion identifier used in logs and history.
func (c *Conversion) ID() string { return c.id }

// Request returns the request as submitted, with OutputPath filled in.
func (c *Conversion) Request() backend.Request { return c.request }

// Stream returns the request's progress stream.
func (c *Conversion) Stream() *progress.Stream { return c.stream }

// TryReceive returns the next pending event without blocking.
func (c *Conversion) TryReceive() (progress.Event, bool) { return c.stream.TryReceive() }

// Done is closed once the conversion reaches Succeeded or Failed and its
// outcome has been recorded.
func (c *Conversion) Done() <-chan struct{} { return c.done }

// Cancel stops the running attempt. The stream then ends with a final
// "Conversion cancelled" error unless a terminal event was already sent.
func (c *Conversion) Cancel() { c.cancel() }

// Detach closes the stream: pending and later events are dropped. The
// conversion keeps running unless Cancel is also called.
func (c *Conversion) Detach() { c.stream.Close() }

// State returns the current state.
func (c *Conversion) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Backend returns the label of the backend running or last run.
func (c *Conversion) Backend() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend
}

// Outcome returns the final summary. It is only meaningful after Done.
func (c *Conversion) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

func (c *Conversion) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Conversion) setRunning(kind backend.Kind) {
	c.mu.Lock()
	c.state = Running
	c.backend = kind.String()
	c.mu.Unlock()
}

func (c *Conversion) finish(outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcome = outcome
	if outcome.Succeeded() {
		c.state = Succeeded
	} else {
		c.state = Failed
	}
}
