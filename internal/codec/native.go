package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// NativeEngine is the pure-Go fallback engine built on
// disintegration/imaging with the stdlib and x/image codecs. It needs no
// shared libraries, but cannot encode WebP.
type NativeEngine struct{}

// NewNativeEngine returns the pure-Go engine.
func NewNativeEngine() *NativeEngine { return &NativeEngine{} }

// Name identifies the engine in logs.
func (e *NativeEngine) Name() string { return "native" }

// Supports reports encode capability. There is no pure-Go WebP encoder.
func (e *NativeEngine) Supports(f Format) bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatGIF, FormatBMP, FormatTIFF:
		return true
	}
	return false
}

// Decode reads the source into memory, decodes it and corrects EXIF
// orientation so downstream geometry sees an upright image.
func (e *NativeEngine) Decode(src Source) (Image, error) {
	data := src.Data
	if len(data) == 0 {
		if src.Path == "" {
			return nil, ErrNoSource
		}
		var err error
		data, err = os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", src.Path, err)
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Alpha must be captured before any op runs: imaging normalizes
	// everything to NRGBA, after which the original capability is gone.
	n := &nativeImage{img: img, alpha: decodedHasAlpha(img)}

	if exifFormats[DetectFormat(data)] {
		n.applyOrientation(readOrientation(bytes.NewReader(data)))
	}
	return n, nil
}

// decodedHasAlpha reports whether the decoded image actually carries
// transparency, not merely an alpha channel.
func decodedHasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

type nativeImage struct {
	img   image.Image
	alpha bool
}

func (n *nativeImage) Width() int     { return n.img.Bounds().Dx() }
func (n *nativeImage) Height() int    { return n.img.Bounds().Dy() }
func (n *nativeImage) HasAlpha() bool { return n.alpha }

// applyOrientation undoes camera rotation. imaging's Rotate functions
// are counter-clockwise, so EXIF 6 (stored 90° CCW) takes Rotate270.
func (n *nativeImage) applyOrientation(orientation int) {
	switch orientation {
	case 2:
		n.img = imaging.FlipH(n.img)
	case 3:
		n.img = imaging.Rotate180(n.img)
	case 4:
		n.img = imaging.FlipV(n.img)
	case 5:
		n.img = imaging.Transpose(n.img)
	case 6:
		n.img = imaging.Rotate270(n.img)
	case 7:
		n.img = imaging.Transverse(n.img)
	case 8:
		n.img = imaging.Rotate90(n.img)
	}
}

func (n *nativeImage) ExtractArea(r image.Rectangle) error {
	b := n.img.Bounds()
	if r.Empty() || !r.In(b) {
		return fmt.Errorf("crop %v outside image bounds %v", r, b)
	}
	n.img = imaging.Crop(n.img, r)
	return nil
}

func (n *nativeImage) Rotate(steps int) error {
	switch ((steps % 4) + 4) % 4 {
	case 1:
		n.img = imaging.Rotate270(n.img)
	case 2:
		n.img = imaging.Rotate180(n.img)
	case 3:
		n.img = imaging.Rotate90(n.img)
	}
	return nil
}

func (n *nativeImage) Flip(horizontal bool) error {
	if horizontal {
		n.img = imaging.FlipH(n.img)
	} else {
		n.img = imaging.FlipV(n.img)
	}
	return nil
}

func (n *nativeImage) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid resize target %dx%d", width, height)
	}
	b := n.img.Bounds()
	if width == b.Dx() && height == b.Dy() {
		return nil
	}
	n.img = imaging.Resize(n.img, width, height, imaging.Lanczos)
	return nil
}

// ToSRGB is a no-op: the pure-Go decoders already yield sRGB pixels and
// carry no ICC machinery.
func (n *nativeImage) ToSRGB() error { return nil }

func (n *nativeImage) Encode(f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	img := n.img

	switch f {
	case FormatJPEG:
		// JPEG has no alpha channel; composite over white first.
		if n.alpha {
			img = flattenWhite(img)
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("jpeg encode failed: %w", err)
		}

	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("png encode failed: %w", err)
		}

	case FormatGIF:
		if err := gif.Encode(&buf, img, &gif.Options{NumColors: 256}); err != nil {
			return nil, fmt.Errorf("gif encode failed: %w", err)
		}

	case FormatBMP:
		// The bmp writer only takes concrete raster types.
		if err := bmp.Encode(&buf, imaging.Clone(img)); err != nil {
			return nil, fmt.Errorf("bmp encode failed: %w", err)
		}

	case FormatTIFF:
		opts := &tiff.Options{Compression: tiff.Deflate, Predictor: true}
		if err := tiff.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("tiff encode failed: %w", err)
		}

	case FormatWebP:
		return nil, fmt.Errorf("webp requires the vips engine: %w", ErrUnsupportedFormat)

	default:
		return nil, fmt.Errorf("%s via native engine: %w", f, ErrUnsupportedFormat)
	}

	return buf.Bytes(), nil
}

func (n *nativeImage) Clone() (Image, error) {
	return &nativeImage{img: imaging.Clone(n.img), alpha: n.alpha}, nil
}

// Close is a no-op; pure-Go images are garbage collected.
func (n *nativeImage) Close() {}

func flattenWhite(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}
