package progress

import "sync"

// Sender is the producer side of a stream. Send never blocks and reports
// whether the event was accepted.
type Sender interface {
	Send(Event) bool
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(Event) bool

// Send calls f(ev).
func (f SenderFunc) Send(ev Event) bool { return f(ev) }

// Discard drops every event.
var Discard Sender = SenderFunc(func(Event) bool { return false })

// Stream is an unbounded FIFO of events with a non-blocking consumer side.
// Producers are never blocked by a slow or absent consumer.
type Stream struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	ready  chan struct{}
}

// NewStream returns an open, empty stream.
func NewStream() *Stream {
	return &Stream{ready: make(chan struct{}, 1)}
}

// Send enqueues ev. After Close the event is dropped and Send returns false.
func (s *Stream) Send(ev Event) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
	return true
}

// TryReceive returns the oldest pending event, or false when none is queued.
func (s *Stream) TryReceive() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Event{}, false
	}
	ev := s.queue[0]
	s.queue[0] = Event{}
	s.queue = s.queue[1:]
	if len(s.queue) == 0 {
		s.queue = nil
	}
	return ev, true
}

// Drain returns every pending event in order and empties the queue.
func (s *Stream) Drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

// Len reports the number of pending events.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Ready is signalled after a send; consumers may select on it instead of
// polling. A signal does not guarantee an event is still pending.
func (s *Stream) Ready() <-chan struct{} {
	return s.ready
}

// Close drops the receive side. Pending events are discarded and later sends
// are ignored. Close is idempotent.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.queue = nil
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
