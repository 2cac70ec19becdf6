package pipeline

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/Zumgugger/reformat-sub001/internal/codec"
	"github.com/Zumgugger/reformat-sub001/internal/geometry"
)

// fakeImage implements codec.Image with settable failure points, for
// exercising pipeline error handling without real codecs.
type fakeImage struct {
	w, h       int
	alpha      bool
	encodeErr  error
	rotateErr  error
	gotFormat  codec.Format
	gotQuality int
}

func (f *fakeImage) Width() int     { return f.w }
func (f *fakeImage) Height() int    { return f.h }
func (f *fakeImage) HasAlpha() bool { return f.alpha }

func (f *fakeImage) ExtractArea(r image.Rectangle) error {
	f.w, f.h = r.Dx(), r.Dy()
	return nil
}

func (f *fakeImage) Rotate(steps int) error {
	if f.rotateErr != nil {
		return f.rotateErr
	}
	if steps%2 == 1 {
		f.w, f.h = f.h, f.w
	}
	return nil
}

func (f *fakeImage) Flip(bool) error { return nil }

func (f *fakeImage) Resize(w, h int) error {
	f.w, f.h = w, h
	return nil
}

func (f *fakeImage) ToSRGB() error { return nil }

func (f *fakeImage) Encode(format codec.Format, quality int) ([]byte, error) {
	f.gotFormat = format
	f.gotQuality = quality
	if f.encodeErr != nil {
		return nil, f.encodeErr
	}
	return []byte("fake image bytes"), nil
}

func (f *fakeImage) Clone() (codec.Image, error) {
	cp := *f
	return &cp, nil
}

func (f *fakeImage) Close() {}

// fakeEngine hands out one fakeImage per decode.
type fakeEngine struct {
	decodeErr error
	img       *fakeImage
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Decode(codec.Source) (codec.Image, error) {
	if e.decodeErr != nil {
		return nil, e.decodeErr
	}
	return e.img, nil
}

func (e *fakeEngine) Supports(f codec.Format) bool { return f.Encodable() }

func TestProcessClampsQuality(t *testing.T) {
	img := &fakeImage{w: 100, h: 100}
	p := &Processor{Engine: &fakeEngine{img: img}}

	_, err := p.Process(Request{
		Source:  codec.BytesSource([]byte("ignored")),
		Dest:    filepath.Join(t.TempDir(), "out.jpg"),
		Format:  codec.FormatJPEG,
		Quality: QualitySpec{JPEG: 200},
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if img.gotQuality != 100 {
		t.Errorf("Encode saw quality %d, want 100 after clamping", img.gotQuality)
	}
	if img.gotFormat != codec.FormatJPEG {
		t.Errorf("Encode saw format %v, want jpeg", img.gotFormat)
	}
}

func TestProcessDefaultQuality(t *testing.T) {
	img := &fakeImage{w: 10, h: 10}
	p := &Processor{Engine: &fakeEngine{img: img}}

	_, err := p.Process(Request{
		Source: codec.BytesSource([]byte("ignored")),
		Dest:   filepath.Join(t.TempDir(), "out.jpg"),
		Format: codec.FormatJPEG,
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if img.gotQuality != 85 {
		t.Errorf("Encode saw quality %d, want the default 85", img.gotQuality)
	}
}

func TestProcessDecodeErrorKeepsWarnings(t *testing.T) {
	boom := errors.New("corrupt input")
	p := &Processor{Engine: &fakeEngine{decodeErr: boom}}

	res, err := p.Process(Request{
		Source:         codec.BytesSource([]byte("ignored")),
		Dest:           filepath.Join(t.TempDir(), "out.png"),
		Format:         codec.FormatJPEG,
		SourceHasAlpha: true,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Process() error = %v, want the decode error", err)
	}
	// Format resolution ran before the decode; its warning must survive
	// the failure.
	if res.Format != codec.FormatPNG {
		t.Errorf("Result format = %v, want png", res.Format)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want the transparency switch recorded before the failure", res.Warnings)
	}
}

func TestProcessStageErrorLeavesNoFile(t *testing.T) {
	boom := errors.New("rotate blew up")
	p := &Processor{Engine: &fakeEngine{img: &fakeImage{w: 10, h: 10, rotateErr: boom}}}
	dest := filepath.Join(t.TempDir(), "out.png")

	_, err := p.Process(Request{
		Source:    codec.BytesSource([]byte("ignored")),
		Dest:      dest,
		Transform: geometry.Transform{RotateSteps: 1},
		Format:    codec.FormatPNG,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Process() error = %v, want the rotate error", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("Failed conversion left an output file behind")
	}
}

func TestProcessEncodeError(t *testing.T) {
	boom := errors.New("encoder out of memory")
	p := &Processor{Engine: &fakeEngine{img: &fakeImage{w: 10, h: 10, encodeErr: boom}}}
	dest := filepath.Join(t.TempDir(), "out.png")

	_, err := p.Process(Request{
		Source: codec.BytesSource([]byte("ignored")),
		Dest:   dest,
		Format: codec.FormatPNG,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Process() error = %v, want the encode error", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("Failed conversion left an output file behind")
	}
}
