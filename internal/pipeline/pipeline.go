package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Zumgugger/reformat-sub001/internal/codec"
	"github.com/Zumgugger/reformat-sub001/internal/fsutil"
	"github.com/Zumgugger/reformat-sub001/internal/geometry"
	"github.com/Zumgugger/reformat-sub001/internal/logging"
	"github.com/Zumgugger/reformat-sub001/internal/metrics"
	"github.com/Zumgugger/reformat-sub001/internal/scheduler"
	"github.com/Zumgugger/reformat-sub001/internal/sizetarget"
)

// Request describes one conversion: which source to read, what to do to
// it, and where the output goes. Transform and Crop are expressed in
// view coordinates, exactly as a preview shows them; the pipeline maps
// them back onto source pixels itself.
type Request struct {
	Source codec.Source
	Dest   string

	Transform geometry.Transform
	Crop      geometry.CropRect
	Resize    ResizeSpec
	Quality   QualitySpec

	// Format is the requested output format; FormatAuto resolves against
	// SourceFormat. SourceFormat and SourceHasAlpha come from the probe
	// of the source, so format resolution here matches the resolution the
	// output naming already did.
	Format         codec.Format
	SourceFormat   codec.Format
	SourceHasAlpha bool

	// Token is polled between stages; nil means never canceled.
	Token *scheduler.Token
}

// Result reports what one conversion produced. Warnings accumulate
// across stages and survive failures: a Result returned alongside an
// error still carries everything recorded before the failure.
type Result struct {
	OutputPath  string
	OutputBytes int64
	Width       int
	Height      int
	Format      codec.Format
	Warnings    []string
}

// Processor converts images through one codec engine. The zero value is
// unusable; construct with an Engine.
type Processor struct {
	Engine codec.Engine
}

// EffectiveFormat resolves the format an image actually encodes to,
// given the requested format and the source's probed characteristics.
// Output naming uses the same resolution for extensions, so a file's
// name never disagrees with its content.
//
// FormatAuto keeps the source format, except GIF and BMP sources, which
// re-encode as PNG (recorded as a warning). Any resolved format that
// cannot carry transparency is switched to PNG when the source has an
// alpha channel, with a warning.
func EffectiveFormat(requested, source codec.Format, hasAlpha bool) (codec.Format, []string) {
	var warnings []string

	f := requested
	if f == "" || f == codec.FormatAuto || f == codec.FormatUnknown {
		switch source {
		case codec.FormatGIF, codec.FormatBMP:
			f = codec.FormatPNG
			warnings = append(warnings, fmt.Sprintf("%s source encoded as png", source))
		case "", codec.FormatUnknown:
			f = codec.FormatPNG
		default:
			f = source
		}
	}

	if hasAlpha && !f.SupportsAlpha() {
		f = codec.FormatPNG
		warnings = append(warnings, "auto-switched to png to preserve transparency")
	}

	return f, warnings
}

// Process runs one conversion end to end. The returned Result is
// meaningful even on error: OutputPath, Format and any warnings gathered
// before the failure are filled in.
//
// Stages run in a fixed order. The crop is extracted first, directly on
// the untransformed source via geometry.InvertRect, then the rotation
// and flips are applied, so orientation work touches only the pixels
// that survive the crop. Cancellation is checked before the decode and
// again before the write; an output that was fully encoded before the
// cancel check still lands on disk only if the check passed.
func (p *Processor) Process(req Request) (Result, error) {
	res := Result{OutputPath: req.Dest}

	if p.Engine == nil {
		return res, fmt.Errorf("no codec engine configured")
	}
	if err := req.Resize.Validate(); err != nil {
		return res, err
	}

	format, warnings := EffectiveFormat(req.Format, req.SourceFormat, req.SourceHasAlpha)
	res.Format = format
	res.Warnings = warnings
	if !p.Engine.Supports(format) {
		return res, fmt.Errorf("%s engine cannot encode %s: %w", p.Engine.Name(), format, codec.ErrUnsupportedFormat)
	}
	quality := req.Quality.Clamp().valueFor(format)

	started := time.Now()
	defer func() {
		metrics.PipelineDuration.WithLabelValues(format.String()).Observe(time.Since(started).Seconds())
	}()

	if req.Token.Canceled() {
		return res, scheduler.ErrCanceled
	}

	img, err := p.Engine.Decode(req.Source)
	if err != nil {
		return res, err
	}
	defer img.Close()

	if req.Crop.Active() {
		rect := geometry.InvertRect(req.Crop, req.Transform, img.Width(), img.Height())
		if err := img.ExtractArea(rect); err != nil {
			return res, fmt.Errorf("crop: %w", err)
		}
	}

	t := req.Transform.Normalize()
	if t.RotateSteps != 0 {
		if err := img.Rotate(t.RotateSteps); err != nil {
			return res, err
		}
	}
	if t.FlipH {
		if err := img.Flip(true); err != nil {
			return res, err
		}
	}
	if t.FlipV {
		if err := img.Flip(false); err != nil {
			return res, err
		}
	}

	var data []byte
	if req.Resize.IsFileSize() {
		data, err = p.encodeToSize(img, req.Resize.TargetBytes(), format, quality, &res)
		if err != nil {
			return res, err
		}
	} else {
		if tw, th, ok := req.Resize.targetDims(img.Width(), img.Height()); ok {
			if err := img.Resize(tw, th); err != nil {
				return res, err
			}
		}
		if err := img.ToSRGB(); err != nil {
			return res, err
		}
		data, err = p.encode(img, format, quality)
		if err != nil {
			return res, err
		}
		res.Width, res.Height = img.Width(), img.Height()
	}
	res.OutputBytes = int64(len(data))

	// Last cancellation point; past here the output file is kept.
	if req.Token.Canceled() {
		return res, fmt.Errorf("%s not written: %w", filepath.Base(req.Dest), scheduler.ErrCanceled)
	}

	if err := fsutil.WriteFileAtomic(req.Dest, data); err != nil {
		return res, err
	}

	logging.Debug("processed %s -> %s (%dx%d, %d bytes, %s)",
		sourceLabel(req.Source), req.Dest, res.Width, res.Height, res.OutputBytes, format)
	return res, nil
}

// encode serializes the image's current state, timing the operation.
func (p *Processor) encode(img codec.Image, f codec.Format, quality int) ([]byte, error) {
	start := time.Now()
	data, err := img.Encode(f, quality)
	metrics.EncodeDuration.WithLabelValues(f.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EncodesTotal.WithLabelValues(f.String(), "error").Inc()
		return nil, err
	}
	metrics.EncodesTotal.WithLabelValues(f.String(), "success").Inc()
	return data, nil
}

// encodeToSize drives the size search with an oracle that encodes a
// scratch clone of img at each candidate dimension. The bytes of the
// winning probe are reused as the output, so the final dimensions are
// never encoded twice.
func (p *Processor) encodeToSize(img codec.Image, targetBytes int64, f codec.Format, quality int, res *Result) ([]byte, error) {
	var (
		lastW, lastH int
		lastData     []byte
	)

	oracle := func(w, h int) (int64, error) {
		scratch, err := img.Clone()
		if err != nil {
			return 0, err
		}
		defer scratch.Close()

		if err := scratch.Resize(w, h); err != nil {
			return 0, err
		}
		if err := scratch.ToSRGB(); err != nil {
			return 0, err
		}
		data, err := p.encode(scratch, f, quality)
		if err != nil {
			return 0, err
		}
		lastW, lastH, lastData = w, h, data
		return int64(len(data)), nil
	}

	out, err := sizetarget.Search(oracle, sizetarget.Params{
		SrcW:        img.Width(),
		SrcH:        img.Height(),
		TargetBytes: targetBytes,
	})
	if err != nil {
		return nil, err
	}
	if !out.Achieved {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("target size %s unreachable, output is %s at minimum dimensions",
				formatBytes(targetBytes), formatBytes(out.Bytes)))
	}

	// The search may settle on dimensions from an earlier probe; encode
	// once more only in that case.
	if out.Width != lastW || out.Height != lastH {
		if _, err := oracle(out.Width, out.Height); err != nil {
			return nil, err
		}
	}
	res.Width, res.Height = out.Width, out.Height
	return lastData, nil
}

func sourceLabel(src codec.Source) string {
	if src.Path != "" {
		return src.Path
	}
	return fmt.Sprintf("<%d bytes>", len(src.Data))
}

// formatBytes renders a byte count the way the run summary does.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
