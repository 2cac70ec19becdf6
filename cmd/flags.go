package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zumgugger/reformat-sub001/internal/codec"
	"github.com/Zumgugger/reformat-sub001/internal/config"
	"github.com/Zumgugger/reformat-sub001/internal/export"
	"github.com/Zumgugger/reformat-sub001/internal/geometry"
	"github.com/Zumgugger/reformat-sub001/internal/logging"
)

// convFlags is the conversion flag set shared by run and watch. Values
// layer on top of the loaded config; only flags the user actually set
// override it.
type convFlags struct {
	format      string
	engine      string
	output      string
	jpegQuality int
	webpQuality int
	percent     float64
	width       int
	height      int
	maxSide     int
	exact       string
	sizeMB      float64
	rotate      int
	flipH       bool
	flipV       bool
	crop        string
	metricsFile string
}

func (f *convFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "", "output format: jpeg, png, webp, gif, bmp, tiff or auto")
	fl.StringVar(&f.engine, "engine", "", "codec engine: vips, native or auto")
	fl.StringVarP(&f.output, "output", "o", "", "output directory (default derives from the sources)")
	fl.IntVar(&f.jpegQuality, "jpeg-quality", 0, "JPEG quality, 40-100")
	fl.IntVar(&f.webpQuality, "webp-quality", 0, "WebP quality, 40-100")
	fl.Float64Var(&f.percent, "percent", 0, "resize to a percentage of the original (50 = half size)")
	fl.IntVar(&f.width, "width", 0, "fit to this width, keeping aspect ratio")
	fl.IntVar(&f.height, "height", 0, "fit to this height, keeping aspect ratio")
	fl.IntVar(&f.maxSide, "max-side", 0, "fit the longest side to this, keeping aspect ratio")
	fl.StringVar(&f.exact, "exact", "", "stretch to exact dimensions, e.g. 800x600")
	fl.Float64Var(&f.sizeMB, "size-mb", 0, "target output file size in megabytes")
	fl.IntVar(&f.rotate, "rotate", 0, "clockwise quarter turns to apply, 0-3")
	fl.BoolVar(&f.flipH, "flip-h", false, "mirror horizontally")
	fl.BoolVar(&f.flipV, "flip-v", false, "mirror vertically")
	fl.StringVar(&f.crop, "crop", "", "crop rect as x,y,w,h fractions of the view, e.g. 0.25,0.25,0.5,0.5")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
}

// resizeFlagNames are the mutually exclusive resize selectors.
var resizeFlagNames = []string{"percent", "width", "height", "max-side", "exact", "size-mb"}

// apply layers changed flags over cfg and re-validates. Resize flags
// replace the config file's resize block wholesale, so a file-level
// percent cannot conflict with a flag-level width.
func (f *convFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("format") {
		cfg.Format = f.format
	}
	if fl.Changed("engine") {
		cfg.Engine = f.engine
	}
	if fl.Changed("output") {
		cfg.OutputDir = f.output
	}
	if fl.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if fl.Changed("jpeg-quality") {
		cfg.JPEGQuality = f.jpegQuality
	}
	if fl.Changed("webp-quality") {
		cfg.WebPQuality = f.webpQuality
	}

	for _, name := range resizeFlagNames {
		if fl.Changed(name) {
			cfg.Resize = config.Resize{
				Percent: f.percent,
				Width:   f.width,
				Height:  f.height,
				MaxSide: f.maxSide,
				Exact:   f.exact,
				SizeMB:  f.sizeMB,
			}
			break
		}
	}

	return cfg.Validate()
}

// settings converts the orientation flags into the per-item settings every
// scanned item will share. ok is false when no orientation work was asked
// for.
func (f *convFlags) settings() (export.ItemSettings, bool, error) {
	s := export.ItemSettings{
		Transform: geometry.Transform{RotateSteps: f.rotate, FlipH: f.flipH, FlipV: f.flipV},
	}
	if f.crop != "" {
		crop, err := parseCrop(f.crop)
		if err != nil {
			return export.ItemSettings{}, false, err
		}
		s.Crop = crop
	}
	ok := s.Transform != geometry.Transform{} || s.Crop.Active()
	return s, ok, nil
}

// parseCrop parses "x,y,w,h" fractional view coordinates.
func parseCrop(s string) (geometry.CropRect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.CropRect{}, fmt.Errorf("invalid crop %q (want x,y,w,h)", s)
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geometry.CropRect{}, fmt.Errorf("invalid crop %q: %w", s, err)
		}
		vals[i] = v
	}
	r := geometry.CropRect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}
	if r.X < 0 || r.Y < 0 || r.W <= 0 || r.H <= 0 || r.X+r.W > 1 || r.Y+r.H > 1 {
		return geometry.CropRect{}, fmt.Errorf("invalid crop %q: values are fractions of the view in [0,1]", s)
	}
	return r, nil
}

// buildEngine resolves the engine name to a codec engine plus a cleanup
// func. auto prefers libvips and falls back to the native engine.
func buildEngine(name string) (codec.Engine, func(), error) {
	noop := func() {}
	switch name {
	case "native":
		return codec.NewNativeEngine(), noop, nil
	case "vips":
		if err := codec.InitVips(); err != nil {
			return nil, noop, fmt.Errorf("initializing libvips: %w", err)
		}
		eng, err := codec.NewVipsEngine()
		if err != nil {
			return nil, noop, err
		}
		return eng, codec.ShutdownVips, nil
	default: // auto
		if err := codec.InitVips(); err == nil {
			if eng, vipsErr := codec.NewVipsEngine(); vipsErr == nil {
				return eng, codec.ShutdownVips, nil
			}
		}
		logging.Warn("libvips unavailable, using the native engine")
		return codec.NewNativeEngine(), noop, nil
	}
}
