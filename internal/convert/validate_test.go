package convert

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vconv/internal/backend"
	"vconv/internal/media"
	"vconv/internal/services"
)

func TestValidateRequest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.mp4")
	if err := os.Symlink(src, link); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		req    backend.Request
		marker error
	}{
		{"valid", backend.Request{SourcePath: src, Format: media.FormatMKV, OutputPath: filepath.Join(dir, "clip.mkv")}, nil},
		{"empty source", backend.Request{Format: media.FormatMKV, OutputPath: "out.mkv"}, services.ErrValidation},
		{"missing source", backend.Request{SourcePath: filepath.Join(dir, "nope.mp4"), Format: media.FormatMKV, OutputPath: "out.mkv"}, services.ErrNotFound},
		{"directory source", backend.Request{SourcePath: dir, Format: media.FormatMKV, OutputPath: "out.mkv"}, services.ErrValidation},
		{"unknown format", backend.Request{SourcePath: src, Format: media.FormatUnknown, OutputPath: "out.mkv"}, services.ErrValidation},
		{"missing output", backend.Request{SourcePath: src, Format: media.FormatMKV}, services.ErrValidation},
		{"output is source", backend.Request{SourcePath: src, Format: media.FormatMP4, OutputPath: src}, services.ErrValidation},
		{"output unclean path to source", backend.Request{SourcePath: src, Format: media.FormatMP4, OutputPath: filepath.Join(dir, ".", "clip.mp4")}, services.ErrValidation},
		{"output links to source", backend.Request{SourcePath: src, Format: media.FormatMP4, OutputPath: link}, services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.marker == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
			if services.FailureKind(err) != "invalid_input" {
				t.Fatalf("FailureKind = %q", services.FailureKind(err))
			}
		})
	}
}

func TestLadder(t *testing.T) {
	if got := ladder(backend.Simulated); len(got) != 1 || got[0] != backend.Simulated {
		t.Fatalf("ladder(Simulated) = %v", got)
	}
	got := ladder(backend.External)
	if len(got) != 2 || got[0] != backend.External || got[1] != backend.Simulated {
		t.Fatalf("ladder(External) = %v", got)
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{Idle, Probing, Running, Retrying} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
	if !Succeeded.Terminal() || !Failed.Terminal() {
		t.Fatal("succeeded and failed are terminal")
	}
}
