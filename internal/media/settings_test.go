package media

import "testing"

func TestBitrateTable(t *testing.T) {
	tests := []struct {
		name string
		b    Bitrate
		r    Resolution
		want int
	}{
		{"medium 1080p", BitrateMedium, Resolution1080p, 6000},
		{"low 720p", BitrateLow, Resolution720p, 1500},
		{"high 4k", BitrateHigh, Resolution4K, 18000},
		{"auto original", BitrateAuto, ResolutionOriginal, 0},
		{"auto 4k", BitrateAuto, Resolution4K, 0},
		{"low original falls back", BitrateLow, ResolutionOriginal, DefaultKbps},
		{"high original falls back", BitrateHigh, ResolutionOriginal, 6000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Kbps(tt.r); got != tt.want {
				t.Fatalf("Kbps = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolutionDimensions(t *testing.T) {
	if _, _, ok := ResolutionOriginal.Dimensions(); ok {
		t.Fatal("original should have no dimensions")
	}
	w, h, ok := Resolution4K.Dimensions()
	if !ok || w != 3840 || h != 2160 {
		t.Fatalf("4K dimensions = %dx%d (%v)", w, h, ok)
	}
}

func TestFrameRateFPS(t *testing.T) {
	if _, ok := FrameRateOriginal.FPS(); ok {
		t.Fatal("original frame rate should not be numeric")
	}
	if fps, ok := FrameRate60.FPS(); !ok || fps != 60 {
		t.Fatalf("60 fps = %d (%v)", fps, ok)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.Resolution != ResolutionOriginal || s.Bitrate != BitrateAuto || s.FrameRate != FrameRateOriginal {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.Kbps() != 0 {
		t.Fatalf("default kbps = %d, want 0", s.Kbps())
	}
}

func TestSettingsCycleWrapsBothWays(t *testing.T) {
	s := DefaultSettings()
	s.Cycle(SettingResolution, false)
	if s.Resolution != Resolution4K {
		t.Fatalf("prev resolution from original = %s", s.Resolution)
	}
	s.Cycle(SettingResolution, true)
	if s.Resolution != ResolutionOriginal {
		t.Fatalf("next resolution from 4K = %s", s.Resolution)
	}

	for i := 0; i < 4; i++ {
		s.Cycle(SettingBitrate, true)
	}
	if s.Bitrate != BitrateAuto {
		t.Fatalf("four steps forward should wrap to auto, got %s", s.Bitrate)
	}

	s.Cycle(SettingFrameRate, false)
	if s.FrameRate != FrameRate60 {
		t.Fatalf("prev frame rate from original = %s", s.FrameRate)
	}
}

func TestSettingFieldCycle(t *testing.T) {
	if SettingFrameRate.Next() != SettingResolution {
		t.Fatal("field cycle should wrap forward")
	}
	if SettingResolution.Prev() != SettingFrameRate {
		t.Fatal("field cycle should wrap backward")
	}
}

func TestParseSettings(t *testing.T) {
	if r, err := ParseResolution("4K"); err != nil || r != Resolution4K {
		t.Fatalf("ParseResolution(4K) = %s, %v", r, err)
	}
	if _, err := ParseResolution("8k"); err == nil {
		t.Fatal("expected error for 8k")
	}
	if b, err := ParseBitrate(" High "); err != nil || b != BitrateHigh {
		t.Fatalf("ParseBitrate(High) = %s, %v", b, err)
	}
	if f, err := ParseFrameRate("30 fps"); err != nil || f != FrameRate30 {
		t.Fatalf("ParseFrameRate(30 fps) = %s, %v", f, err)
	}
	if f, err := ParseFrameRate(""); err != nil || f != FrameRateOriginal {
		t.Fatalf("ParseFrameRate(empty) = %s, %v", f, err)
	}
	if _, err := ParseFrameRate("25"); err == nil {
		t.Fatal("expected error for 25 fps")
	}
}
