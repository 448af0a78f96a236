package deps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"vconv/internal/services"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command status: %#v", results[2])
	}
}

func TestToolRequirementsAreOptional(t *testing.T) {
	for _, req := range ToolRequirements("ffmpeg", "ffprobe") {
		if !req.Optional {
			t.Fatalf("expected %s to be optional", req.Name)
		}
	}
}

func TestProbeVersionSuccess(t *testing.T) {
	stubCommand(t, "version")
	ok, version, err := ProbeVersion(context.Background(), "ffmpeg", 5*time.Second)
	if err != nil {
		t.Fatalf("ProbeVersion returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected tool to be available")
	}
	if version != "ffmpeg version 6.1 Copyright (c) the FFmpeg developers" {
		t.Fatalf("unexpected version line %q", version)
	}
}

func TestProbeVersionMissingBinary(t *testing.T) {
	ok, _, err := ProbeVersion(context.Background(), "clearly-not-present-binary", time.Second)
	if err != nil {
		t.Fatalf("missing binary should not be an error, got %v", err)
	}
	if ok {
		t.Fatal("expected missing binary to be unavailable")
	}

	ok, _, err = ProbeVersion(context.Background(), filepath.Join(t.TempDir(), "ffmpeg"), time.Second)
	if err != nil || ok {
		t.Fatalf("missing absolute path: ok=%v err=%v", ok, err)
	}
}

func TestProbeVersionFailureIsError(t *testing.T) {
	stubCommand(t, "fail")
	ok, _, err := ProbeVersion(context.Background(), "ffmpeg", 5*time.Second)
	if ok {
		t.Fatal("expected failing tool to be unavailable")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestProbeVersionPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits not enforced")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o644); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	ok, _, err := ProbeVersion(context.Background(), path, time.Second)
	if ok || err == nil {
		t.Fatalf("expected permission failure, got ok=%v err=%v", ok, err)
	}
}

func TestProbeVersionTimeout(t *testing.T) {
	stubCommand(t, "hang")
	ok, _, err := ProbeVersion(context.Background(), "ffmpeg", 100*time.Millisecond)
	if ok {
		t.Fatal("expected hung tool to be unavailable")
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestProbeVersionBlankBinary(t *testing.T) {
	ok, _, err := ProbeVersion(context.Background(), "", time.Second)
	if ok || err != nil {
		t.Fatalf("blank binary: ok=%v err=%v", ok, err)
	}
}

func stubCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "DEPS_HELPER_MODE="+mode, "GORACE=atexit_sleep_ms=0")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("DEPS_HELPER_MODE") {
	case "version":
		fmt.Println("ffmpeg version 6.1 Copyright (c) the FFmpeg developers")
		fmt.Println("built with gcc")
		os.Exit(0)
	case "fail":
		os.Exit(1)
	case "hang":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	}
	os.Exit(2)
}
