package pipeline

import (
	"fmt"
	"math"

	"github.com/Zumgugger/reformat-sub001/internal/codec"
)

// Driving selects which dimension controls a keep-ratio pixel resize.
type Driving string

const (
	// DrivingWidth fits the target width; height follows the aspect ratio.
	DrivingWidth Driving = "width"
	// DrivingHeight fits the target height; width follows the aspect ratio.
	DrivingHeight Driving = "height"
	// DrivingMaxSide fits whichever side is longer to the target length.
	DrivingMaxSide Driving = "max-side"
)

// PixelSpec describes a fixed-dimension resize target.
type PixelSpec struct {
	KeepRatio bool
	Driving   Driving // consulted only when KeepRatio is set
	Width     int     // DrivingWidth target, or exact width when !KeepRatio
	Height    int     // DrivingHeight target, or exact height when !KeepRatio
	Side      int     // DrivingMaxSide target
}

// resizeMode tags the ResizeSpec variants. Unexported so that specs are
// only built through the constructors, never from stringly-typed fields.
type resizeMode int

const (
	resizeNone resizeMode = iota
	resizePercent
	resizePixels
	resizeFileSize
)

// ResizeSpec is the resize policy of a run: keep the source dimensions,
// scale by a factor, fit fixed pixel dimensions, or aim for an output
// file size. The zero value keeps the source dimensions.
//
// Whatever the policy, the pipeline never upscales: a target that is not
// strictly smaller than the current size in the driving dimension leaves
// the image untouched.
type ResizeSpec struct {
	mode      resizeMode
	scale     float64
	pixels    PixelSpec
	megabytes float64
}

// ResizeNone keeps the source dimensions.
func ResizeNone() ResizeSpec {
	return ResizeSpec{mode: resizeNone}
}

// ResizeByPercent scales both dimensions by the given factor (0.5 means
// half size). Factors of 1 and above leave the image untouched.
func ResizeByPercent(scale float64) ResizeSpec {
	return ResizeSpec{mode: resizePercent, scale: scale}
}

// ResizeToPixels shrinks to fixed pixel dimensions.
func ResizeToPixels(px PixelSpec) ResizeSpec {
	return ResizeSpec{mode: resizePixels, pixels: px}
}

// ResizeToFileSize searches for the largest dimensions whose encoded
// output lands near the given size in megabytes.
func ResizeToFileSize(megabytes float64) ResizeSpec {
	return ResizeSpec{mode: resizeFileSize, megabytes: megabytes}
}

// Validate reports whether the spec's numbers make sense. The pipeline
// and the batch orchestrator both reject invalid specs before work starts.
func (r ResizeSpec) Validate() error {
	switch r.mode {
	case resizeNone:
		return nil
	case resizePercent:
		if r.scale <= 0 {
			return fmt.Errorf("resize percent must be positive, got %g", r.scale)
		}
	case resizePixels:
		px := r.pixels
		if !px.KeepRatio {
			if px.Width < 1 || px.Height < 1 {
				return fmt.Errorf("resize dimensions must be at least 1x1, got %dx%d", px.Width, px.Height)
			}
			return nil
		}
		switch px.Driving {
		case DrivingWidth:
			if px.Width < 1 {
				return fmt.Errorf("resize width must be at least 1, got %d", px.Width)
			}
		case DrivingHeight:
			if px.Height < 1 {
				return fmt.Errorf("resize height must be at least 1, got %d", px.Height)
			}
		case DrivingMaxSide:
			if px.Side < 1 {
				return fmt.Errorf("resize side must be at least 1, got %d", px.Side)
			}
		default:
			return fmt.Errorf("unknown driving dimension %q", px.Driving)
		}
	case resizeFileSize:
		if r.megabytes <= 0 {
			return fmt.Errorf("target file size must be positive, got %g MB", r.megabytes)
		}
	}
	return nil
}

// IsFileSize reports whether the spec targets an output file size rather
// than fixed dimensions.
func (r ResizeSpec) IsFileSize() bool { return r.mode == resizeFileSize }

// TargetBytes converts the file-size target to bytes. Zero for other modes.
func (r ResizeSpec) TargetBytes() int64 {
	if r.mode != resizeFileSize {
		return 0
	}
	return int64(math.Round(r.megabytes * 1024 * 1024))
}

// targetDims computes the dimensions a w x h image should shrink to, and
// whether a resize should happen at all. The no-upscale rule lives here:
// ok is false whenever the target is not strictly smaller in the driving
// dimension. File-size mode has no fixed target and always returns false.
func (r ResizeSpec) targetDims(w, h int) (tw, th int, ok bool) {
	switch r.mode {
	case resizePercent:
		tw = clampDim(math.Round(float64(w) * r.scale))
		th = clampDim(math.Round(float64(h) * r.scale))
		return tw, th, tw < w

	case resizePixels:
		px := r.pixels
		if !px.KeepRatio {
			// Free-form targets can shrink one axis while the other is
			// already at or below its target; each axis caps at the
			// current size so nothing upscales.
			tw = min(px.Width, w)
			th = min(px.Height, h)
			return tw, th, tw < w || th < h
		}
		switch px.Driving {
		case DrivingWidth:
			tw = px.Width
			th = clampDim(math.Round(float64(h) * float64(tw) / float64(w)))
			return tw, th, tw < w
		case DrivingHeight:
			th = px.Height
			tw = clampDim(math.Round(float64(w) * float64(th) / float64(h)))
			return tw, th, th < h
		case DrivingMaxSide:
			if w >= h {
				tw = px.Side
				th = clampDim(math.Round(float64(h) * float64(tw) / float64(w)))
				return tw, th, tw < w
			}
			th = px.Side
			tw = clampDim(math.Round(float64(w) * float64(th) / float64(h)))
			return tw, th, th < h
		}
	}
	return w, h, false
}

func clampDim(f float64) int {
	if f < 1 {
		return 1
	}
	return int(f)
}

// String renders the policy for logs and the run banner.
func (r ResizeSpec) String() string {
	switch r.mode {
	case resizePercent:
		return fmt.Sprintf("scale to %g%%", r.scale*100)
	case resizePixels:
		px := r.pixels
		if !px.KeepRatio {
			return fmt.Sprintf("stretch to %dx%d", px.Width, px.Height)
		}
		switch px.Driving {
		case DrivingWidth:
			return fmt.Sprintf("fit width %d", px.Width)
		case DrivingHeight:
			return fmt.Sprintf("fit height %d", px.Height)
		case DrivingMaxSide:
			return fmt.Sprintf("fit longest side %d", px.Side)
		}
	case resizeFileSize:
		return fmt.Sprintf("target %g MB", r.megabytes)
	}
	return "original size"
}

// Quality bounds. Values outside the band are clamped, matching the
// range the conversion dialog offers.
const (
	MinQuality = 40
	MaxQuality = 100
)

// QualitySpec carries the encode quality per lossy format. Formats
// without a quality concept ignore it.
type QualitySpec struct {
	JPEG int
	WebP int
}

// DefaultQuality is the quality used when the caller specifies nothing.
func DefaultQuality() QualitySpec {
	return QualitySpec{JPEG: 85, WebP: 80}
}

// Clamp bounds both values into [MinQuality, MaxQuality]. Zero values
// take the defaults first, so the zero QualitySpec is usable.
func (q QualitySpec) Clamp() QualitySpec {
	def := DefaultQuality()
	if q.JPEG == 0 {
		q.JPEG = def.JPEG
	}
	if q.WebP == 0 {
		q.WebP = def.WebP
	}
	q.JPEG = clampQuality(q.JPEG)
	q.WebP = clampQuality(q.WebP)
	return q
}

func clampQuality(v int) int {
	if v < MinQuality {
		return MinQuality
	}
	if v > MaxQuality {
		return MaxQuality
	}
	return v
}

// valueFor returns the quality for a lossy format, zero for the rest.
// Callers Clamp first.
func (q QualitySpec) valueFor(f codec.Format) int {
	switch f {
	case codec.FormatJPEG:
		return q.JPEG
	case codec.FormatWebP:
		return q.WebP
	}
	return 0
}
