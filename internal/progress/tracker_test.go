package progress

import "testing"

func TestEventTerminal(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want bool
	}{
		{"step", Event{Percent: 40}, false},
		{"complete", Event{Percent: 100, IsComplete: true}, true},
		{"attempt error", Event{HasError: true, ErrorMessage: "boom"}, false},
		{"final error", Event{HasError: true, Final: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.Terminal(); got != tt.want {
				t.Fatalf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTemplateBuilders(t *testing.T) {
	tpl := Template{SourcePath: "/in.mov", OutputPath: "/in.mp4"}
	if ev := tpl.Step(150, "x"); ev.Percent != 100 {
		t.Fatalf("percent not clamped: %d", ev.Percent)
	}
	done := tpl.Complete("Conversion complete!")
	if !done.IsComplete || done.Percent != 100 || done.SourcePath != "/in.mov" {
		t.Fatalf("unexpected complete event: %+v", done)
	}
	fail := tpl.Failure(42, "Error", "disk full")
	if !fail.HasError || fail.IsComplete || fail.Percent != 42 || fail.ErrorMessage != "disk full" {
		t.Fatalf("unexpected failure event: %+v", fail)
	}
}

func TestPercent(t *testing.T) {
	if Percent(5, 0) != 0 {
		t.Fatal("unknown total should yield 0")
	}
	if Percent(50, 200) != 25 {
		t.Fatalf("Percent(50,200) = %d", Percent(50, 200))
	}
	if Percent(300, 200) != 100 {
		t.Fatal("overshoot should clamp to 100")
	}
}

func TestTrackerStopsAtTerminal(t *testing.T) {
	s := NewStream()
	s.Send(Event{Percent: 0, Step: "Initializing conversion..."})
	s.Send(Event{Percent: 50, Attempt: 1, Backend: "Native"})
	s.Send(Event{Percent: 50, Attempt: 1, Backend: "Native", HasError: true, ErrorMessage: "io"})
	s.Send(Event{Percent: 0, Attempt: 2, Backend: "Simulated"})
	s.Send(Event{Percent: 100, Attempt: 2, Backend: "Simulated", IsComplete: true})
	s.Send(Event{Percent: 1, Attempt: 2})

	var tr Tracker
	if n := tr.Poll(s, nil); n != 5 {
		t.Fatalf("tracker consumed %d events, want 5", n)
	}
	if !tr.Done || !tr.Succeeded {
		t.Fatalf("expected success, got %+v", tr)
	}
	if tr.Backend != "Simulated" || tr.Attempt != 2 {
		t.Fatalf("unexpected attempt state: %s/%d", tr.Backend, tr.Attempt)
	}
	if tr.LastError != "io" {
		t.Fatalf("last error = %q", tr.LastError)
	}
	if s.Len() != 1 {
		t.Fatalf("event after terminal should remain queued, len=%d", s.Len())
	}
}

func TestTrackerAttemptChanged(t *testing.T) {
	var tr Tracker
	tr.Observe(Event{Attempt: 1, Backend: "External"})
	if tr.AttemptChanged() {
		t.Fatal("first attempt is not a change")
	}
	tr.Observe(Event{Attempt: 1, Percent: 10})
	if tr.AttemptChanged() {
		t.Fatal("same attempt is not a change")
	}
	tr.Observe(Event{Attempt: 2, Backend: "Simulated"})
	if !tr.AttemptChanged() {
		t.Fatal("expected attempt change")
	}
}

func TestTrackerFinalFailure(t *testing.T) {
	var tr Tracker
	if tr.Observe(Event{HasError: true, ErrorMessage: "missing", Final: true}) != true {
		t.Fatal("final error should be terminal")
	}
	if tr.Succeeded {
		t.Fatal("failure must not be marked succeeded")
	}
}

func TestTrackerPollReportsAttemptChangePerEvent(t *testing.T) {
	s := NewStream()
	s.Send(Event{Percent: 30, Attempt: 1, Backend: "Native"})
	s.Send(Event{Percent: 30, Attempt: 1, Backend: "Native", HasError: true, ErrorMessage: "disk full"})
	s.Send(Event{Percent: 0, Attempt: 2, Backend: "Simulated"})
	s.Send(Event{Percent: 40, Attempt: 2, Backend: "Simulated"})

	var tr Tracker
	var resets []bool
	var percents []uint8
	n := tr.Poll(s, func(ev Event, newAttempt bool) {
		percents = append(percents, ev.Percent)
		resets = append(resets, newAttempt)
	})
	if n != 4 || len(resets) != 4 {
		t.Fatalf("consumed %d events, callback saw %d", n, len(resets))
	}
	want := []bool{false, false, true, false}
	for i := range want {
		if resets[i] != want[i] {
			t.Fatalf("event %d (percent %d): newAttempt = %t, want %t", i, percents[i], resets[i], want[i])
		}
	}
	if tr.Done {
		t.Fatal("no terminal event was sent")
	}
}
