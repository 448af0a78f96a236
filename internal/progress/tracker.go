package progress

// Tracker folds events into the consumer's view of a conversion: latest
// percent and step, current attempt, and whether the stream has finished.
type Tracker struct {
	Last         Event
	Attempt      int
	Backend      string
	LastError    string
	Done         bool
	Succeeded    bool
	attemptReset bool
}

// Observe records ev and reports whether it is terminal. Events received after
// a terminal event are ignored.
func (t *Tracker) Observe(ev Event) bool {
	if t.Done {
		return true
	}
	t.attemptReset = false
	if ev.Attempt != t.Attempt && ev.Attempt > 0 {
		t.attemptReset = t.Attempt > 0
		t.Attempt = ev.Attempt
		t.Backend = ev.Backend
	}
	if ev.HasError && ev.ErrorMessage != "" {
		t.LastError = ev.ErrorMessage
	}
	t.Last = ev
	if ev.Terminal() {
		t.Done = true
		t.Succeeded = ev.IsComplete
	}
	return t.Done
}

// AttemptChanged reports whether the last observed event started a new attempt
// after an earlier one. Displays use it to reset their progress bar.
func (t *Tracker) AttemptChanged() bool {
	return t.attemptReset
}

// Source is anything events can be pulled from without blocking.
type Source interface {
	TryReceive() (Event, bool)
}

// Poll drains every pending event from src through the tracker, stopping at
// the first terminal event, and returns how many it consumed. fn, when set,
// sees each event right after Observe so AttemptChanged refers to it.
func (t *Tracker) Poll(src Source, fn func(ev Event, newAttempt bool)) int {
	n := 0
	for !t.Done {
		ev, ok := src.TryReceive()
		if !ok {
			break
		}
		t.Observe(ev)
		n++
		if fn != nil {
			fn(ev, t.attemptReset)
		}
	}
	return n
}
