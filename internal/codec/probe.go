package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	// Register decoders for DecodeConfig-based probing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Info describes a probed image without fully decoding it.
type Info struct {
	Format      Format
	Width       int
	Height      int
	HasAlpha    bool
	Orientation int
}

// DetectFormat sniffs the leading bytes of an image stream. It never
// trusts file extensions; content decides.
func DetectFormat(header []byte) Format {
	switch {
	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return FormatJPEG

	case len(header) >= 8 && header[0] == 0x89 && header[1] == 0x50 && header[2] == 0x4E && header[3] == 0x47:
		return FormatPNG

	case len(header) >= 4 && header[0] == 0x47 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x38:
		return FormatGIF

	case len(header) >= 12 && header[0] == 0x52 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x46 &&
		header[8] == 0x57 && header[9] == 0x45 && header[10] == 0x42 && header[11] == 0x50:
		return FormatWebP

	case len(header) >= 2 && header[0] == 0x42 && header[1] == 0x4D:
		return FormatBMP

	case len(header) >= 4 && ((header[0] == 0x49 && header[1] == 0x49 && header[2] == 0x2A && header[3] == 0x00) ||
		(header[0] == 0x4D && header[1] == 0x4D && header[2] == 0x00 && header[3] == 0x2A)):
		return FormatTIFF
	}

	return FormatUnknown
}

// Probe opens a file and reads its format, dimensions, alpha capability
// and EXIF orientation without decoding pixel data.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return probeReader(f)
}

// ProbeBytes probes an in-memory image.
func ProbeBytes(data []byte) (Info, error) {
	return probeReader(bytes.NewReader(data))
}

func probeReader(rs io.ReadSeeker) (Info, error) {
	header := make([]byte, 32)
	n, err := io.ReadFull(rs, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return Info{}, fmt.Errorf("failed to read image header: %w", err)
	}

	info := Info{
		Format:      DetectFormat(header[:n]),
		Orientation: 1,
	}
	if info.Format == FormatUnknown {
		return info, fmt.Errorf("unrecognized image content: %w", ErrDecode)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return info, err
	}
	cfg, _, err := image.DecodeConfig(rs)
	if err != nil {
		return info, fmt.Errorf("failed to decode %s header: %w", info.Format, err)
	}
	info.Width = cfg.Width
	info.Height = cfg.Height
	info.HasAlpha = modelHasAlpha(cfg.ColorModel)

	if exifFormats[info.Format] {
		info.Orientation = readOrientation(rs)
	}

	return info, nil
}

// modelHasAlpha reports whether the container declares an alpha channel.
// The png decoder maps opaque truecolor to RGBAModel and alpha-carrying
// truecolor to NRGBAModel, so only the non-premultiplied models count.
// For paletted images the palette entries themselves decide.
func modelHasAlpha(m color.Model) bool {
	switch m {
	case color.NRGBAModel, color.NRGBA64Model, color.AlphaModel, color.Alpha16Model, color.NYCbCrAModel:
		return true
	}
	if pal, ok := m.(color.Palette); ok {
		return paletteHasAlpha(pal)
	}
	return false
}

func paletteHasAlpha(pal color.Palette) bool {
	for _, c := range pal {
		if _, _, _, a := c.RGBA(); a < 0xffff {
			return true
		}
	}
	return false
}
