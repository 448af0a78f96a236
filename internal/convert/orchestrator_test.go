package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"vconv/internal/backend"
	"vconv/internal/config"
	"vconv/internal/logging"
	"vconv/internal/media"
	"vconv/internal/progress"
	"vconv/internal/services"
	"vconv/internal/testsupport"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation.DelayScale = 0
	cfg.Tools.FFmpeg = "vconv-test-missing-ffmpeg"
	return &cfg
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("source video bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func await(t *testing.T, conv *Conversion) []progress.Event {
	t.Helper()
	select {
	case <-conv.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("conversion did not finish")
	}
	return conv.Stream().Drain()
}

func staticProbe(available bool, calls *atomic.Int32) ProbeFunc {
	return func(context.Context) (bool, error) {
		if calls != nil {
			calls.Add(1)
		}
		return available, nil
	}
}

func completingRunner() backend.RunFunc {
	return func(_ context.Context, req backend.Request, sink progress.Sender) error {
		tpl := req.Template()
		go func() {
			sink.Send(tpl.Step(0, "Starting"))
			sink.Send(tpl.Step(50, "Halfway"))
			sink.Send(tpl.Complete("Conversion complete!"))
		}()
		return nil
	}
}

func failingRunner(percent uint8, message string) backend.RunFunc {
	return func(_ context.Context, req backend.Request, sink progress.Sender) error {
		tpl := req.Template()
		go func() {
			sink.Send(tpl.Step(percent, "Working"))
			sink.Send(tpl.Failure(percent, "Write error", message))
		}()
		return nil
	}
}

type countingObserver struct {
	mu        sync.Mutex
	probes    map[string]int
	fallbacks []string
	finished  []string
}

func (c *countingObserver) ProbeResult(b string, available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.probes == nil {
		c.probes = map[string]int{}
	}
	c.probes[fmt.Sprintf("%s=%t", b, available)]++
}

func (c *countingObserver) Fallback(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbacks = append(c.fallbacks, from+"->"+to)
}

func (c *countingObserver) ConversionFinished(b, result string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = append(c.finished, b+":"+result)
}

type memoryRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
	err      error
}

func (r *memoryRecorder) Record(_ context.Context, o Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return r.err
}

func assertSingleTerminal(t *testing.T, events []progress.Event) progress.Event {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events")
	}
	for i, ev := range events[:len(events)-1] {
		if ev.Terminal() {
			t.Fatalf("event %d is terminal before the end: %+v", i, ev)
		}
	}
	last := events[len(events)-1]
	if !last.Terminal() {
		t.Fatalf("last event is not terminal: %+v", last)
	}
	return last
}

func TestSimulatedChosenWhenNoRealBackend(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var nativeCalls, externalCalls atomic.Int32
	obs := &countingObserver{}
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(false, &nativeCalls)),
		WithProbe(backend.External, staticProbe(false, &externalCalls)),
		WithObserver(obs),
	)
	src := writeSource(t, "clip.mp4")
	conv := o.Convert(context.Background(), backend.Request{SourcePath: src, Format: media.FormatMKV})
	events := await(t, conv)
	o.Wait()

	if nativeCalls.Load() != 1 || externalCalls.Load() != 1 {
		t.Fatalf("probe calls native=%d external=%d", nativeCalls.Load(), externalCalls.Load())
	}
	first := events[0]
	if first.Percent != 0 || first.Step != "Initializing conversion..." || first.Attempt != 0 {
		t.Fatalf("unexpected first event %+v", first)
	}
	initCount := 0
	prevFrame := 19
	for _, ev := range events {
		if ev.Step == "Initializing conversion..." {
			initCount++
		}
		var frame int
		if _, err := fmt.Sscanf(ev.Step, "Converting video frame %d/100...", &frame); err == nil {
			if frame != prevFrame+1 || int(ev.Percent) != frame {
				t.Fatalf("frame sequence broken at %d after %d (percent %d)", frame, prevFrame, ev.Percent)
			}
			prevFrame = frame
		}
		if ev.Attempt == 1 && ev.Backend != "Simulated" {
			t.Fatalf("attempt 1 event from %q", ev.Backend)
		}
	}
	if initCount != 1 {
		t.Fatalf("expected one initializing event, got %d", initCount)
	}
	if prevFrame != 80 {
		t.Fatalf("frames stopped at %d", prevFrame)
	}
	last := assertSingleTerminal(t, events)
	if !last.IsComplete || last.Percent != 100 || last.Backend != "Simulated" {
		t.Fatalf("unexpected terminal event %+v", last)
	}
	if conv.State() != Succeeded || conv.Backend() != "Simulated" {
		t.Fatalf("state=%s backend=%s", conv.State(), conv.Backend())
	}
	if got := conv.Request().OutputPath; got != strings.TrimSuffix(src, ".mp4")+".mkv" {
		t.Fatalf("derived output path %q", got)
	}
	if len(obs.finished) != 1 || obs.finished[0] != "Simulated:succeeded" {
		t.Fatalf("observer finished = %v", obs.finished)
	}
}

func TestNativeAvailableSkipsExternalProbe(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var externalCalls atomic.Int32
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(true, nil)),
		WithProbe(backend.External, staticProbe(true, &externalCalls)),
		WithRunner(backend.Native, completingRunner()),
	)
	conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "a.avi"), Format: media.FormatMP4})
	events := await(t, conv)

	if externalCalls.Load() != 0 {
		t.Fatalf("external probe called %d times", externalCalls.Load())
	}
	last := assertSingleTerminal(t, events)
	if !last.IsComplete || last.Backend != "Native" || last.Attempt != 1 {
		t.Fatalf("unexpected terminal %+v", last)
	}
	if out := conv.Outcome(); out.Backend != "Native" || out.Attempts != 1 || !out.Succeeded() {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestMissingSourceFailsBeforeProbing(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var probes atomic.Int32
	rec := &memoryRecorder{}
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(true, &probes)),
		WithProbe(backend.External, staticProbe(true, &probes)),
		WithRecorder(rec),
	)
	src := writeSource(t, "gone.mov")
	if err := os.Remove(src); err != nil {
		t.Fatalf("remove source: %v", err)
	}
	conv := o.Convert(context.Background(), backend.Request{SourcePath: src, Format: media.FormatWebM})
	events := await(t, conv)

	if len(events) != 1 {
		t.Fatalf("expected a single event, got %+v", events)
	}
	ev := events[0]
	if !ev.HasError || !ev.Final || ev.Step != "Invalid input" || ev.Backend != "" || ev.Percent != 0 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if !strings.Contains(ev.ErrorMessage, "does not exist") {
		t.Fatalf("unexpected message %q", ev.ErrorMessage)
	}
	if probes.Load() != 0 {
		t.Fatalf("probes ran %d times", probes.Load())
	}
	if _, err := os.Stat(conv.Request().OutputPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("output should not exist, stat err=%v", err)
	}
	if conv.State() != Failed {
		t.Fatalf("state = %s", conv.State())
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Result != ResultInvalidInput {
		t.Fatalf("recorded %+v", rec.outcomes)
	}
}

func TestOutputEqualToSourceRejected(t *testing.T) {
	src := writeSource(t, "movie.mkv")
	o := New(testConfig(), logging.NewNop())
	conv := o.Convert(context.Background(), backend.Request{SourcePath: src, Format: media.FormatMKV})
	events := await(t, conv)

	if len(events) != 1 || events[0].Step != "Invalid input" || !strings.Contains(events[0].ErrorMessage, "overwrite the source") {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestBackendFailureFallsBackToSimulated(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	obs := &countingObserver{}
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(true, nil)),
		WithRunner(backend.Native, failingRunner(30, "Write error: disk full")),
		WithObserver(obs),
	)
	conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "in.mp4"), Format: media.FormatAVI})
	events := await(t, conv)

	noticeIdx := -1
	for i, ev := range events {
		if ev.Step == "Native failed, falling back to Simulated" {
			noticeIdx = i
		}
	}
	if noticeIdx < 1 {
		t.Fatalf("fallback notice missing: %+v", events)
	}
	failure, notice := events[noticeIdx-1], events[noticeIdx]
	if !failure.HasError || failure.Final || failure.Backend != "Native" || failure.ErrorMessage != "Write error: disk full" {
		t.Fatalf("unexpected backend failure event %+v", failure)
	}
	if !notice.HasError || notice.Final || notice.Percent != 30 || notice.ErrorMessage != failure.ErrorMessage {
		t.Fatalf("unexpected notice %+v", notice)
	}
	for _, ev := range events[noticeIdx+1:] {
		if ev.Attempt != 2 || ev.Backend != "Simulated" {
			t.Fatalf("event after fallback from wrong attempt: %+v", ev)
		}
	}
	last := assertSingleTerminal(t, events)
	if !last.IsComplete {
		t.Fatalf("expected completion, got %+v", last)
	}
	if len(obs.fallbacks) != 1 || obs.fallbacks[0] != "Native->Simulated" {
		t.Fatalf("fallbacks = %v", obs.fallbacks)
	}
	if out := conv.Outcome(); out.Attempts != 2 || out.Backend != "Simulated" {
		t.Fatalf("outcome %+v", out)
	}
}

func TestSetupErrorFallsBack(t *testing.T) {
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(false, nil)),
		WithProbe(backend.External, staticProbe(true, nil)),
		WithRunner(backend.External, func(context.Context, backend.Request, progress.Sender) error {
			return services.Wrap(services.ErrExternalTool, "backend", "start", "ffmpeg missing", nil)
		}),
	)
	conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "in.mov"), Format: media.FormatMP4})
	events := await(t, conv)

	var sawSetup, sawNotice bool
	for _, ev := range events {
		if ev.Step == "Failed to start External" && ev.HasError && ev.Backend == "External" {
			sawSetup = true
		}
		if ev.Step == "External failed, falling back to Simulated" {
			sawNotice = true
		}
	}
	if !sawSetup || !sawNotice {
		t.Fatalf("setup failure not reported: %+v", events)
	}
	if !assertSingleTerminal(t, events).IsComplete {
		t.Fatal("simulated fallback should complete")
	}
}

func TestRunnerPanicDuringSetupFallsBack(t *testing.T) {
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(true, nil)),
		WithRunner(backend.Native, func(context.Context, backend.Request, progress.Sender) error {
			panic("boom")
		}),
	)
	conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "in.mp4"), Format: media.FormatMKV})
	events := await(t, conv)

	found := false
	for _, ev := range events {
		if ev.Step == "Failed to start Native" && strings.Contains(ev.ErrorMessage, "backend crashed: boom") {
			found = true
		}
	}
	if !found || !assertSingleTerminal(t, events).IsComplete {
		t.Fatalf("panic not converted into fallback: %+v", events)
	}
}

func TestLastRungFailureIsFinal(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rec := &memoryRecorder{}
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(false, nil)),
		WithProbe(backend.External, staticProbe(false, nil)),
		WithRunner(backend.Simulated, failingRunner(40, "simulated fault")),
		WithRecorder(rec),
	)
	conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "in.mp4"), Format: media.FormatMKV})
	events := await(t, conv)

	last := assertSingleTerminal(t, events)
	if !last.HasError || !last.Final || last.ErrorMessage != "simulated fault" || last.Backend != "Simulated" {
		t.Fatalf("unexpected terminal %+v", last)
	}
	for _, ev := range events {
		if strings.Contains(ev.Step, "falling back") {
			t.Fatalf("no fallback expected from the last rung: %+v", ev)
		}
	}
	if conv.State() != Failed || rec.outcomes[0].Result != ResultFailed || rec.outcomes[0].ErrorMessage != "simulated fault" {
		t.Fatalf("state=%s outcome=%+v", conv.State(), rec.outcomes)
	}
}

func TestCancelStopsAttempt(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	started := make(chan struct{})
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(true, nil)),
		WithRunner(backend.Native, func(ctx context.Context, req backend.Request, sink progress.Sender) error {
			tpl := req.Template()
			go func() {
				sink.Send(tpl.Step(15, "Processing"))
				close(started)
				<-ctx.Done()
				sink.Send(tpl.Failure(15, "Cancelled", "Conversion cancelled"))
			}()
			return nil
		}),
	)
	conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "in.mp4"), Format: media.FormatMKV})
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("attempt never started")
	}
	conv.Cancel()
	events := await(t, conv)

	last := assertSingleTerminal(t, events)
	if !last.HasError || !last.Final || last.ErrorMessage != "Conversion cancelled" || last.Percent != 15 {
		t.Fatalf("unexpected terminal %+v", last)
	}
	for _, ev := range events {
		if ev.Backend == "Simulated" {
			t.Fatalf("cancellation must not fall back: %+v", ev)
		}
	}
	if out := conv.Outcome(); out.Result != ResultCancelled {
		t.Fatalf("outcome %+v", out)
	}
}

func TestParentContextCancellation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := testConfig()
	cfg.Simulation.DelayScale = 1
	ctx, cancel := context.WithCancel(context.Background())
	o := New(cfg, logging.NewNop(),
		WithProbe(backend.Native, staticProbe(false, nil)),
		WithProbe(backend.External, staticProbe(false, nil)),
	)
	conv := o.Convert(ctx, backend.Request{SourcePath: writeSource(t, "in.mp4"), Format: media.FormatMKV})
	time.Sleep(50 * time.Millisecond)
	cancel()
	events := await(t, conv)

	last := assertSingleTerminal(t, events)
	if !last.Final || last.ErrorMessage != "Conversion cancelled" {
		t.Fatalf("unexpected terminal %+v", last)
	}
}

func TestLateEventsFromRetiredAttemptAreDropped(t *testing.T) {
	var captured progress.Sender
	var mu sync.Mutex
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(true, nil)),
		WithRunner(backend.Native, func(_ context.Context, req backend.Request, sink progress.Sender) error {
			mu.Lock()
			captured = sink
			mu.Unlock()
			go sink.Send(req.Template().Failure(5, "Read error", "short read"))
			return nil
		}),
	)
	conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "in.mp4"), Format: media.FormatMKV})
	events := await(t, conv)

	mu.Lock()
	late := captured
	mu.Unlock()
	if late.Send(progress.Event{Percent: 99, Step: "late"}) {
		t.Fatal("retired attempt sender accepted an event")
	}
	for _, ev := range append(events, conv.Stream().Drain()...) {
		if ev.Step == "late" {
			t.Fatalf("late event leaked: %+v", ev)
		}
	}
}

func TestProbeErrorTreatedAsUnavailable(t *testing.T) {
	obs := &countingObserver{}
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(false, nil)),
		WithProbe(backend.External, func(context.Context) (bool, error) {
			return true, errors.New("permission denied")
		}),
		WithObserver(obs),
	)
	if got := o.Select(context.Background()); got != backend.Simulated {
		t.Fatalf("Select = %s", got)
	}
	if obs.probes["External=false"] != 1 {
		t.Fatalf("probe observations = %v", obs.probes)
	}
}

func TestProbeTimeoutBoundsProbe(t *testing.T) {
	o := New(testConfig(), logging.NewNop(),
		WithProbeTimeout(20*time.Millisecond),
		WithProbe(backend.Native, func(ctx context.Context) (bool, error) {
			<-ctx.Done()
			return false, ctx.Err()
		}),
		WithProbe(backend.External, staticProbe(false, nil)),
	)
	start := time.Now()
	if got := o.Select(context.Background()); got != backend.Simulated {
		t.Fatalf("Select = %s", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("probe timeout not applied")
	}
}

func TestProbeAllReportsEveryBackend(t *testing.T) {
	var externalCalls atomic.Int32
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(true, nil)),
		WithProbe(backend.External, staticProbe(false, &externalCalls)),
	)
	results := o.ProbeAll(context.Background())
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	want := []bool{true, false, true}
	for i, r := range results {
		if r.Kind != backend.Kinds()[i] || r.Available != want[i] {
			t.Fatalf("result %d = %+v", i, r)
		}
	}
	if externalCalls.Load() != 1 {
		t.Fatal("ProbeAll must probe External even when Native is available")
	}
}

func TestDefaultExternalProbeMissingBinary(t *testing.T) {
	cfg := testConfig()
	cfg.Backends.NativeEnabled = false
	o := New(cfg, logging.NewNop())
	if got := o.Select(context.Background()); got != backend.Simulated {
		t.Fatalf("Select = %s with missing ffmpeg and native disabled", got)
	}
}

func TestDefaultExternalProbeFindsStubbedFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNativeDisabled(), testsupport.WithStubbedTools())
	o := New(cfg, logging.NewNop())
	if got := o.Select(context.Background()); got != backend.External {
		t.Fatalf("Select = %s, want External with a working ffmpeg", got)
	}
}

func TestRecorderErrorDoesNotFailConversion(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("database is locked")}
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(false, nil)),
		WithProbe(backend.External, staticProbe(false, nil)),
		WithRecorder(rec),
		WithIDGenerator(func() string { return "fixed-id" }),
	)
	conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "in.mp4"), Format: media.FormatMOV})
	await(t, conv)
	if conv.State() != Succeeded || conv.ID() != "fixed-id" {
		t.Fatalf("state=%s id=%s", conv.State(), conv.ID())
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].ID != "fixed-id" || rec.outcomes[0].Elapsed() < 0 {
		t.Fatalf("recorded %+v", rec.outcomes)
	}
}

func TestDetachDropsEvents(t *testing.T) {
	o := New(testConfig(), logging.NewNop(),
		WithProbe(backend.Native, staticProbe(false, nil)),
		WithProbe(backend.External, staticProbe(false, nil)),
	)
	conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "in.mp4"), Format: media.FormatMKV})
	conv.Detach()
	await(t, conv)
	if _, ok := conv.TryReceive(); ok {
		t.Fatal("detached stream should not yield events")
	}
	if conv.State() != Succeeded {
		t.Fatalf("detached conversion should still finish, state=%s", conv.State())
	}
}

func TestFinalSetupErrorClassifiesResult(t *testing.T) {
	tests := []struct {
		name   string
		runner backend.RunFunc
		want   string
	}{
		{
			name: "tool error",
			runner: func(context.Context, backend.Request, progress.Sender) error {
				return services.Wrap(services.ErrExternalTool, "backend", "start", "encoder missing", nil)
			},
			want: ResultToolError,
		},
		{
			name: "timeout",
			runner: func(context.Context, backend.Request, progress.Sender) error {
				return services.Wrap(services.ErrTimeout, "backend", "start", "no response", nil)
			},
			want: ResultTimeout,
		},
		{name: "runner not configured", runner: nil, want: ResultConfiguration},
		{
			name: "unclassified",
			runner: func(context.Context, backend.Request, progress.Sender) error {
				return errors.New("plain failure")
			},
			want: ResultFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memoryRecorder{}
			obs := &countingObserver{}
			o := New(testConfig(), logging.NewNop(),
				WithProbe(backend.Native, staticProbe(false, nil)),
				WithProbe(backend.External, staticProbe(false, nil)),
				WithRunner(backend.Simulated, tt.runner),
				WithRecorder(rec),
				WithObserver(obs),
			)
			conv := o.Convert(context.Background(), backend.Request{SourcePath: writeSource(t, "in.mp4"), Format: media.FormatMKV})
			last := assertSingleTerminal(t, await(t, conv))
			o.Wait()

			if !last.HasError || !last.Final {
				t.Fatalf("unexpected terminal %+v", last)
			}
			if conv.State() != Failed || len(rec.outcomes) != 1 || rec.outcomes[0].Result != tt.want {
				t.Fatalf("state=%s outcomes=%+v", conv.State(), rec.outcomes)
			}
			if len(obs.finished) != 1 || obs.finished[0] != "Simulated:"+tt.want {
				t.Fatalf("finished = %v", obs.finished)
			}
		})
	}
}
