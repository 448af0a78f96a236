package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"vconv/internal/logging"
	"vconv/internal/progress"
)

// progressDisplay renders the events a conversion emits. newAttempt is set on
// the first event of a fallback attempt.
type progressDisplay interface {
	Update(ev progress.Event, newAttempt bool)
	Close(succeeded bool)
}

func newProgressDisplay(out io.Writer) progressDisplay {
	if isTerminal(out) {
		return newBarDisplay(out)
	}
	return newLineDisplay(out)
}

type barDisplay struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newBarDisplay(out io.Writer) *barDisplay {
	return &barDisplay{
		out: out,
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetDescription("Starting"),
		),
	}
}

func (d *barDisplay) Update(ev progress.Event, newAttempt bool) {
	if newAttempt {
		fmt.Fprintln(d.out)
		d.bar.Reset()
	}
	if ev.HasError && ev.ErrorMessage != "" {
		fmt.Fprintf(d.out, "\n%s\n", eventLabel(ev, ev.ErrorMessage))
	}
	d.bar.Describe(eventLabel(ev, ev.Step))
	_ = d.bar.Set(int(ev.Percent))
}

func (d *barDisplay) Close(succeeded bool) {
	if succeeded {
		_ = d.bar.Finish()
	} else {
		_ = d.bar.Exit()
	}
	fmt.Fprintln(d.out)
}

// lineDisplay writes one line per progress bucket for pipes and log capture.
type lineDisplay struct {
	out     io.Writer
	sampler *logging.ProgressSampler
}

func newLineDisplay(out io.Writer) *lineDisplay {
	return &lineDisplay{out: out, sampler: logging.NewProgressSampler(10)}
}

func (d *lineDisplay) Update(ev progress.Event, newAttempt bool) {
	if newAttempt {
		d.sampler.Reset()
	}
	switch {
	case ev.HasError:
		fmt.Fprintf(d.out, "%3d%% %s\n", ev.Percent, eventLabel(ev, ev.ErrorMessage))
	case ev.IsComplete, d.sampler.ShouldLog(float64(ev.Percent), ev.Backend):
		fmt.Fprintf(d.out, "%3d%% %s\n", ev.Percent, eventLabel(ev, ev.Step))
	}
}

func (d *lineDisplay) Close(bool) {}

func eventLabel(ev progress.Event, text string) string {
	if ev.Backend == "" {
		return text
	}
	return fmt.Sprintf("[%s] %s", ev.Backend, text)
}
