package codec

import (
	"errors"
	"image"
)

var (
	// ErrUnsupportedFormat is returned when an engine cannot encode the
	// requested format.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrNoSource is returned when a Source has neither a path nor bytes.
	ErrNoSource = errors.New("source has no path or data")
	// ErrDecode is returned when content cannot be decoded as an image.
	ErrDecode = errors.New("image decode failed")
)

// Source is the input to a decode: a file path, in-memory bytes, or both.
// When both are set, Data wins.
type Source struct {
	Path string
	Data []byte
}

// FileSource builds a Source backed by a file path.
func FileSource(path string) Source {
	return Source{Path: path}
}

// BytesSource builds a Source backed by an in-memory buffer.
func BytesSource(data []byte) Source {
	return Source{Data: data}
}

// Image is a decoded picture that the pipeline mutates in place. Calls
// apply to the current state, so op order matters. Close releases any
// native resources; it is safe to call more than once.
type Image interface {
	Width() int
	Height() int
	HasAlpha() bool

	// ExtractArea crops to the given rectangle in current pixel coords.
	ExtractArea(r image.Rectangle) error
	// Rotate turns the image by steps*90 degrees clockwise.
	Rotate(steps int) error
	// Flip mirrors the image, horizontally (left-right) when horizontal
	// is true, vertically (top-bottom) otherwise.
	Flip(horizontal bool) error
	// Resize scales the image to exactly width x height pixels.
	Resize(width, height int) error
	// ToSRGB converts the working colorspace to sRGB.
	ToSRGB() error
	// Encode serializes the current state. Quality applies to lossy
	// formats only and is expected to already be clamped by the caller.
	Encode(f Format, quality int) ([]byte, error)
	// Clone returns an independent copy in the current state. Mutating
	// the copy leaves the original untouched; callers Close both.
	Clone() (Image, error)

	Close()
}

// Engine decodes sources into mutable Images. Implementations differ in
// codec coverage; callers check Supports before selecting an output
// format.
type Engine interface {
	// Name identifies the engine in logs ("vips" or "native").
	Name() string
	// Decode opens the source, applying EXIF orientation so the returned
	// image is upright.
	Decode(src Source) (Image, error)
	// Supports reports whether Encode can produce the given format.
	Supports(f Format) bool
}
