package backend

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
)

// DescribeExit turns an ffmpeg wait error into the message shown to the
// operator, telling exit codes and signals apart.
func DescribeExit(err error) string {
	if err == nil {
		return ""
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return fmt.Sprintf("FFmpeg process terminated by signal: %s", status.Signal())
		}
		return fmt.Sprintf("FFmpeg failed with exit code: %d", exitErr.ExitCode())
	}
	return fmt.Sprintf("FFmpeg failed: %v", err)
}

// lineTail keeps the last few lines written to it. ffmpeg stderr is line
// oriented, so partial writes are joined before splitting.
type lineTail struct {
	mu      sync.Mutex
	lines   []string
	max     int
	partial string
}

func newLineTail(max int) *lineTail {
	if max < 1 {
		max = 20
	}
	return &lineTail{max: max}
}

func (t *lineTail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data := t.partial + string(p)
	parts := strings.Split(data, "\n")
	t.partial = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		t.add(line)
	}
	return len(p), nil
}

func (t *lineTail) add(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

// Lines returns the retained lines, oldest first, including any unterminated
// final line.
func (t *lineTail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := append([]string(nil), t.lines...)
	if strings.TrimSpace(t.partial) != "" {
		out = append(out, strings.TrimRight(t.partial, "\r"))
		if len(out) > t.max {
			out = out[len(out)-t.max:]
		}
	}
	return out
}

// Last returns the most recent non-empty line.
func (t *lineTail) Last() string {
	lines := t.Lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
