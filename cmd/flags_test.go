package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Zumgugger/reformat-sub001/internal/config"
	"github.com/Zumgugger/reformat-sub001/internal/geometry"
)

func newFlagCommand(f *convFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	f.register(cmd)
	return cmd
}

func TestParseCrop(t *testing.T) {
	tests := []struct {
		in      string
		want    geometry.CropRect
		wantErr bool
	}{
		{in: "0.25,0.25,0.5,0.5", want: geometry.CropRect{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}},
		{in: "0, 0, 1, 1", want: geometry.CropRect{X: 0, Y: 0, W: 1, H: 1}},
		{in: "0.5,0.5,0.5,0.5", want: geometry.CropRect{X: 0.5, Y: 0.5, W: 0.5, H: 0.5}},
		{in: "0.25,0.25,0.5", wantErr: true},
		{in: "a,b,c,d", wantErr: true},
		{in: "0.6,0,0.5,0.5", wantErr: true}, // x+w > 1
		{in: "0,0.6,0.5,0.5", wantErr: true}, // y+h > 1
		{in: "0,0,0,0.5", wantErr: true},     // zero width
		{in: "-0.1,0,0.5,0.5", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseCrop(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseCrop(%q) = %+v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseCrop(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCrop(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestApplyOverridesOnlyChangedFlags(t *testing.T) {
	var f convFlags
	cmd := newFlagCommand(&f)
	if err := cmd.ParseFlags([]string{"--format", "png"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	cfg := config.Default()
	cfg.JPEGQuality = 77

	if err := f.apply(cmd, &cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Format != "png" {
		t.Errorf("Format = %q, want png", cfg.Format)
	}
	if cfg.JPEGQuality != 77 {
		t.Errorf("JPEGQuality = %d, want 77 (flag not set, config must survive)", cfg.JPEGQuality)
	}
	if cfg.Engine != "auto" {
		t.Errorf("Engine = %q, want auto", cfg.Engine)
	}
}

func TestApplyReplacesResizeWholesale(t *testing.T) {
	var f convFlags
	cmd := newFlagCommand(&f)
	if err := cmd.ParseFlags([]string{"--width", "800"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	// A file-level percent must not conflict with the flag-level width:
	// the flag replaces the whole resize block.
	cfg := config.Default()
	cfg.Resize = config.Resize{Percent: 50}

	if err := f.apply(cmd, &cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := config.Resize{Width: 800}
	if cfg.Resize != want {
		t.Errorf("Resize = %+v, want %+v", cfg.Resize, want)
	}
}

func TestApplyValidatesResult(t *testing.T) {
	var f convFlags
	cmd := newFlagCommand(&f)
	if err := cmd.ParseFlags([]string{"--engine", "bogus"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	cfg := config.Default()
	err := f.apply(cmd, &cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown engine") {
		t.Fatalf("apply error = %v, want unknown engine", err)
	}
}

func TestApplyRejectsConflictingResizeFlags(t *testing.T) {
	var f convFlags
	cmd := newFlagCommand(&f)
	if err := cmd.ParseFlags([]string{"--percent", "50", "--width", "800"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	cfg := config.Default()
	if err := f.apply(cmd, &cfg); err == nil {
		t.Fatal("apply accepted --percent together with --width")
	}
}

func TestSettingsInactiveByDefault(t *testing.T) {
	var f convFlags
	s, ok, err := f.settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if ok {
		t.Errorf("settings active with no orientation flags: %+v", s)
	}
}

func TestSettingsActive(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*convFlags)
	}{
		{"rotate", func(f *convFlags) { f.rotate = 1 }},
		{"flip-h", func(f *convFlags) { f.flipH = true }},
		{"flip-v", func(f *convFlags) { f.flipV = true }},
		{"crop", func(f *convFlags) { f.crop = "0.25,0.25,0.5,0.5" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f convFlags
			tt.mut(&f)
			_, ok, err := f.settings()
			if err != nil {
				t.Fatalf("settings: %v", err)
			}
			if !ok {
				t.Error("settings inactive")
			}
		})
	}
}

func TestSettingsBadCrop(t *testing.T) {
	f := convFlags{crop: "not-a-crop"}
	if _, _, err := f.settings(); err == nil {
		t.Fatal("settings accepted an unparseable crop")
	}
}
