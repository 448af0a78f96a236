package convert

import (
	"sync"

	"vconv/internal/progress"
)

// attemptSender is the sink handed to one backend attempt. It stamps events
// with the attempt's backend and number, forwards progress to the request
// stream, and hands the first terminal event to the supervisor instead. After
// the terminal event, or once the supervisor retires it, every send is
// dropped.
type attemptSender struct {
	stream   *progress.Stream
	backend  string
	attempt  int
	terminal chan progress.Event

	mu      sync.Mutex
	retired bool
	last    uint8
}

func newAttemptSender(stream *progress.Stream, backend string, attempt int) *attemptSender {
	return &attemptSender{
		stream:   stream,
		backend:  backend,
		attempt:  attempt,
		terminal: make(chan progress.Event, 1),
	}
}

func (s *attemptSender) Send(ev progress.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return false
	}
	ev.Backend = s.backend
	ev.Attempt = s.attempt
	ev.Final = false
	if ev.IsComplete || ev.HasError {
		s.retired = true
		s.terminal <- ev
		return true
	}
	s.last = ev.Percent
	return s.stream.Send(ev)
}

// retire drops every later send.
func (s *attemptSender) retire() {
	s.mu.Lock()
	s.retired = true
	s.mu.Unlock()
}

// lastPercent returns the percent of the last forwarded progress event.
func (s *attemptSender) lastPercent() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// stamp applies the attempt's labels to an event built by the supervisor.
func (s *attemptSender) stamp(ev progress.Event) progress.Event {
	ev.Backend = s.backend
	ev.Attempt = s.attempt
	return ev
}
