package codec

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
)

// NOTE: govips doesn't support stopping and restarting vips in the same process.
// Once vips.Shutdown() is called, vips.Startup() cannot be called again.
// These tests are ordered to handle this limitation - tests that need vips run
// first, shutdown tests run last.

func requireVips(t *testing.T) *VipsEngine {
	t.Helper()
	if !IsVipsAvailable() {
		if err := InitVips(); err != nil {
			t.Skip("libvips not available in test environment")
		}
	}
	engine, err := NewVipsEngine()
	if err != nil {
		t.Skip("libvips not available in test environment")
	}
	return engine
}

func TestIsVipsAvailable(t *testing.T) {
	// We can't assume vips is available in all test environments; just
	// verify the check doesn't panic.
	t.Logf("libvips available: %v", IsVipsAvailable())
}

func TestInitVipsIdempotency(t *testing.T) {
	err := InitVips()
	if err != nil {
		t.Logf("libvips not available in test environment: %v", err)
		return
	}

	if err := InitVips(); err != nil {
		t.Errorf("Second InitVips() call failed: %v", err)
	}
	if !IsVipsAvailable() {
		t.Error("After successful InitVips, IsVipsAvailable should return true")
	}
}

func TestNewVipsEngine(t *testing.T) {
	if !IsVipsAvailable() {
		if _, err := NewVipsEngine(); err == nil {
			t.Error("Expected error from NewVipsEngine before initialization")
		}
		if err := InitVips(); err != nil {
			t.Skip("libvips not available in test environment")
		}
	}

	engine, err := NewVipsEngine()
	if err != nil {
		t.Fatalf("NewVipsEngine() error: %v", err)
	}
	if engine.Name() != "vips" {
		t.Errorf("Name() = %q, want %q", engine.Name(), "vips")
	}
}

func TestVipsEngineSupports(t *testing.T) {
	engine := &VipsEngine{}

	supported := map[Format]bool{
		FormatJPEG:    true,
		FormatPNG:     true,
		FormatWebP:    true,
		FormatGIF:     true,
		FormatTIFF:    true,
		FormatBMP:     false,
		FormatAuto:    false,
		FormatUnknown: false,
	}

	for f, want := range supported {
		if got := engine.Supports(f); got != want {
			t.Errorf("Supports(%v) = %v, want %v", f, got, want)
		}
	}
}

func TestVipsEngineDecodeNoSource(t *testing.T) {
	engine := &VipsEngine{}
	if _, err := engine.Decode(Source{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("Expected ErrNoSource, got %v", err)
	}
}

func TestVipsEngineDecodeAndTransform(t *testing.T) {
	engine := requireVips(t)

	path := filepath.Join(t.TempDir(), "fixture.png")
	if err := os.WriteFile(path, encodePNG(t, testImage(64, 32)), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	t.Run("decode from file", func(t *testing.T) {
		img, err := engine.Decode(FileSource(path))
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		defer img.Close()

		if img.Width() != 64 || img.Height() != 32 {
			t.Errorf("Dimensions = %dx%d, want 64x32", img.Width(), img.Height())
		}
	})

	t.Run("decode from bytes", func(t *testing.T) {
		img, err := engine.Decode(BytesSource(encodePNG(t, testImage(10, 20))))
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		defer img.Close()

		if img.Width() != 10 || img.Height() != 20 {
			t.Errorf("Dimensions = %dx%d, want 10x20", img.Width(), img.Height())
		}
	})

	t.Run("rotate swaps dimensions", func(t *testing.T) {
		img, err := engine.Decode(FileSource(path))
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		defer img.Close()

		if err := img.Rotate(1); err != nil {
			t.Fatalf("Rotate() error: %v", err)
		}
		if img.Width() != 32 || img.Height() != 64 {
			t.Errorf("Dimensions after rotate = %dx%d, want 32x64", img.Width(), img.Height())
		}
	})

	t.Run("extract area", func(t *testing.T) {
		img, err := engine.Decode(FileSource(path))
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		defer img.Close()

		if err := img.ExtractArea(image.Rect(8, 4, 40, 20)); err != nil {
			t.Fatalf("ExtractArea() error: %v", err)
		}
		if img.Width() != 32 || img.Height() != 16 {
			t.Errorf("Dimensions after crop = %dx%d, want 32x16", img.Width(), img.Height())
		}
	})

	t.Run("resize", func(t *testing.T) {
		img, err := engine.Decode(FileSource(path))
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		defer img.Close()

		if err := img.Resize(16, 8); err != nil {
			t.Fatalf("Resize() error: %v", err)
		}
		if img.Width() != 16 || img.Height() != 8 {
			t.Errorf("Dimensions after resize = %dx%d, want 16x8", img.Width(), img.Height())
		}
	})

	t.Run("flip", func(t *testing.T) {
		img, err := engine.Decode(FileSource(path))
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		defer img.Close()

		if err := img.Flip(true); err != nil {
			t.Fatalf("Flip(true) error: %v", err)
		}
		if err := img.Flip(false); err != nil {
			t.Fatalf("Flip(false) error: %v", err)
		}
		if img.Width() != 64 || img.Height() != 32 {
			t.Errorf("Dimensions after flips = %dx%d, want 64x32", img.Width(), img.Height())
		}
	})
}

func TestVipsImageClone(t *testing.T) {
	engine := requireVips(t)

	img, err := engine.Decode(BytesSource(encodePNG(t, testImage(40, 20))))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	defer img.Close()

	clone, err := img.Clone()
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	defer clone.Close()

	if err := clone.Resize(10, 5); err != nil {
		t.Fatalf("Resize() on clone error: %v", err)
	}
	if clone.Width() != 10 || clone.Height() != 5 {
		t.Errorf("Clone dimensions = %dx%d, want 10x5", clone.Width(), clone.Height())
	}
	if img.Width() != 40 || img.Height() != 20 {
		t.Errorf("Original dimensions = %dx%d after mutating clone, want 40x20", img.Width(), img.Height())
	}
}

func TestVipsEngineEncode(t *testing.T) {
	engine := requireVips(t)

	for _, f := range []Format{FormatJPEG, FormatPNG, FormatWebP, FormatGIF, FormatTIFF} {
		t.Run(string(f), func(t *testing.T) {
			img, err := engine.Decode(BytesSource(encodePNG(t, testImage(40, 20))))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			defer img.Close()

			data, err := img.Encode(f, 85)
			if err != nil {
				t.Fatalf("Encode(%v) error: %v", f, err)
			}
			if got := DetectFormat(data); got != f {
				t.Errorf("Encoded content sniffs as %v, want %v", got, f)
			}
		})
	}

	t.Run("bmp unsupported", func(t *testing.T) {
		img, err := engine.Decode(BytesSource(encodePNG(t, testImage(8, 8))))
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		defer img.Close()

		if _, err := img.Encode(FormatBMP, 85); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
		}
	})
}

func TestVipsEngineDecodeErrors(t *testing.T) {
	engine := requireVips(t)

	if _, err := engine.Decode(FileSource("/nonexistent/path/image.jpg")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
	if _, err := engine.Decode(BytesSource([]byte("not an image"))); err == nil {
		t.Error("Expected error for non-image bytes, got nil")
	}
}

// Tests that interact with shutdown should run last to avoid breaking other tests
func TestShutdownVips(t *testing.T) {
	ShutdownVips()

	// Calling shutdown multiple times should be safe
	ShutdownVips()

	if IsVipsAvailable() {
		t.Error("After ShutdownVips, IsVipsAvailable should return false")
	}
}
