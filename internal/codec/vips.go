package codec

import (
	"fmt"
	"image"
	"sync"

	"github.com/Zumgugger/reformat-sub001/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library
// This should be called once at startup
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Map our log level to vips log level
	// Configure vips logging BEFORE Startup() to respect LOG_LEVEL environment variable
	var vipsLogLevel vips.LogLevel
	var logHandler func(string, vips.LogLevel, string)

	appLevel := logging.GetLevel()
	switch appLevel {
	case logging.LevelDebug:
		// Debug: Show all vips messages including INFO
		vipsLogLevel = vips.LogLevelInfo
		logHandler = func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			case vips.LogLevelMessage, vips.LogLevelInfo, vips.LogLevelDebug:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	case logging.LevelInfo:
		// Info: Only show warnings and errors
		vipsLogLevel = vips.LogLevelWarning
		logHandler = func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			case vips.LogLevelMessage, vips.LogLevelInfo, vips.LogLevelDebug:
				// Suppressed at Info level
			}
		}
	case logging.LevelWarn:
		// Warn: Only show errors
		vipsLogLevel = vips.LogLevelError
		logHandler = func(domain string, level vips.LogLevel, msg string) {
			if level >= vips.LogLevelError {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	case logging.LevelError:
		// Error: Only show critical errors
		vipsLogLevel = vips.LogLevelCritical
		logHandler = func(domain string, level vips.LogLevel, msg string) {
			if level >= vips.LogLevelCritical {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	default:
		vipsLogLevel = vips.LogLevelWarning
		logHandler = func(domain string, level vips.LogLevel, msg string) {
			if level >= vips.LogLevelError {
				logging.Warn("[%s] %s", domain, msg)
			}
		}
	}

	vips.LoggingSettings(logHandler, vipsLogLevel)

	// Keep libvips itself single-threaded; parallelism comes from the
	// worker pool, and one vips thread per image bounds memory.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024, // 50MB cache
		MaxCacheSize:     100,              // Max 100 operations cached
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// VipsEngine is the libvips-backed codec engine. It is the default when
// libvips is initialized; the native engine covers the rest.
type VipsEngine struct{}

// NewVipsEngine returns the libvips engine. InitVips must have been
// called first.
func NewVipsEngine() (*VipsEngine, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not initialized")
	}
	return &VipsEngine{}, nil
}

// Name identifies the engine in logs.
func (e *VipsEngine) Name() string { return "vips" }

// Supports reports encode capability. libvips builds we target carry no
// BMP saver.
func (e *VipsEngine) Supports(f Format) bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP, FormatGIF, FormatTIFF:
		return true
	}
	return false
}

// Decode loads the source and applies EXIF orientation so downstream
// geometry sees an upright image.
func (e *VipsEngine) Decode(src Source) (Image, error) {
	importParams := vips.NewImportParams()

	var (
		ref *vips.ImageRef
		err error
	)
	switch {
	case len(src.Data) > 0:
		ref, err = vips.LoadImageFromBuffer(src.Data, importParams)
	case src.Path != "":
		ref, err = vips.LoadImageFromFile(src.Path, importParams)
	default:
		return nil, ErrNoSource
	}
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}

	if err := ref.AutoRotate(); err != nil {
		ref.Close()
		return nil, fmt.Errorf("vips auto-rotate failed: %w", err)
	}

	return &vipsImage{ref: ref}, nil
}

type vipsImage struct {
	ref    *vips.ImageRef
	closed bool
}

func (v *vipsImage) Width() int     { return v.ref.Width() }
func (v *vipsImage) Height() int    { return v.ref.Height() }
func (v *vipsImage) HasAlpha() bool { return v.ref.HasAlpha() }

func (v *vipsImage) ExtractArea(r image.Rectangle) error {
	if err := v.ref.ExtractArea(r.Min.X, r.Min.Y, r.Dx(), r.Dy()); err != nil {
		return fmt.Errorf("vips extract area failed: %w", err)
	}
	return nil
}

func (v *vipsImage) Rotate(steps int) error {
	var angle vips.Angle
	switch ((steps % 4) + 4) % 4 {
	case 0:
		return nil
	case 1:
		angle = vips.Angle90
	case 2:
		angle = vips.Angle180
	case 3:
		angle = vips.Angle270
	}
	if err := v.ref.Rotate(angle); err != nil {
		return fmt.Errorf("vips rotate failed: %w", err)
	}
	return nil
}

func (v *vipsImage) Flip(horizontal bool) error {
	direction := vips.DirectionVertical
	if horizontal {
		direction = vips.DirectionHorizontal
	}
	if err := v.ref.Flip(direction); err != nil {
		return fmt.Errorf("vips flip failed: %w", err)
	}
	return nil
}

func (v *vipsImage) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid resize target %dx%d", width, height)
	}
	if width == v.ref.Width() && height == v.ref.Height() {
		return nil
	}
	hscale := float64(width) / float64(v.ref.Width())
	vscale := float64(height) / float64(v.ref.Height())
	if err := v.ref.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
		return fmt.Errorf("vips resize failed: %w", err)
	}
	return nil
}

func (v *vipsImage) ToSRGB() error {
	if err := v.ref.ToColorSpace(vips.InterpretationSRGB); err != nil {
		return fmt.Errorf("vips colorspace conversion failed: %w", err)
	}
	return nil
}

func (v *vipsImage) Encode(f Format, quality int) ([]byte, error) {
	switch f {
	case FormatJPEG:
		// JPEG has no alpha channel; composite over white first.
		if v.ref.HasAlpha() {
			if err := v.ref.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
				return nil, fmt.Errorf("vips flatten failed: %w", err)
			}
		}
		params := vips.NewJpegExportParams()
		params.Quality = quality
		params.OptimizeCoding = true
		buf, _, err := v.ref.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("vips jpeg export failed: %w", err)
		}
		return buf, nil

	case FormatPNG:
		buf, _, err := v.ref.ExportPng(vips.NewPngExportParams())
		if err != nil {
			return nil, fmt.Errorf("vips png export failed: %w", err)
		}
		return buf, nil

	case FormatWebP:
		params := vips.NewWebpExportParams()
		params.Quality = quality
		params.Lossless = false
		buf, _, err := v.ref.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("vips webp export failed: %w", err)
		}
		return buf, nil

	case FormatGIF:
		buf, _, err := v.ref.ExportGIF(vips.NewGifExportParams())
		if err != nil {
			return nil, fmt.Errorf("vips gif export failed: %w", err)
		}
		return buf, nil

	case FormatTIFF:
		buf, _, err := v.ref.ExportTiff(vips.NewTiffExportParams())
		if err != nil {
			return nil, fmt.Errorf("vips tiff export failed: %w", err)
		}
		return buf, nil
	}

	return nil, fmt.Errorf("%s via vips: %w", f, ErrUnsupportedFormat)
}

func (v *vipsImage) Clone() (Image, error) {
	ref, err := v.ref.Copy()
	if err != nil {
		return nil, fmt.Errorf("vips copy failed: %w", err)
	}
	return &vipsImage{ref: ref}, nil
}

func (v *vipsImage) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.ref.Close()
}
