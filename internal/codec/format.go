package codec

import (
	"fmt"
	"strings"
)

// Format identifies an image encoding.
type Format string

const (
	// FormatAuto resolves to the source format at encode time.
	FormatAuto Format = "auto"
	// FormatJPEG is baseline JPEG.
	FormatJPEG Format = "jpeg"
	// FormatPNG is PNG.
	FormatPNG Format = "png"
	// FormatWebP is WebP.
	FormatWebP Format = "webp"
	// FormatGIF is GIF.
	FormatGIF Format = "gif"
	// FormatBMP is Windows bitmap.
	FormatBMP Format = "bmp"
	// FormatTIFF is TIFF.
	FormatTIFF Format = "tiff"
	// FormatUnknown marks content that no sniffer rule matched.
	FormatUnknown Format = "unknown"
)

// EncodeFormats lists the concrete output formats, in display order.
func EncodeFormats() []Format {
	return []Format{FormatJPEG, FormatPNG, FormatWebP, FormatGIF, FormatBMP, FormatTIFF}
}

// formatAliases maps accepted spellings to canonical formats.
var formatAliases = map[string]Format{
	"auto": FormatAuto,
	"jpg":  FormatJPEG,
	"jpeg": FormatJPEG,
	"png":  FormatPNG,
	"webp": FormatWebP,
	"gif":  FormatGIF,
	"bmp":  FormatBMP,
	"tif":  FormatTIFF,
	"tiff": FormatTIFF,
}

// ParseFormat maps a user-supplied name ("jpg", "TIFF", "auto", with or
// without a leading dot) to a Format.
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return FormatUnknown, fmt.Errorf("unknown format %q", s)
}

// Ext returns the output file extension including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	case FormatGIF:
		return ".gif"
	case FormatBMP:
		return ".bmp"
	case FormatTIFF:
		return ".tiff"
	}
	return ""
}

// Lossy reports whether the format discards detail at a quality setting.
// Quality values only apply to lossy formats.
func (f Format) Lossy() bool {
	return f == FormatJPEG || f == FormatWebP
}

// SupportsAlpha reports whether the format can carry transparency.
func (f Format) SupportsAlpha() bool {
	switch f {
	case FormatPNG, FormatWebP, FormatGIF, FormatTIFF:
		return true
	}
	return false
}

// Encodable reports whether the format is a concrete encode target.
func (f Format) Encodable() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP, FormatGIF, FormatBMP, FormatTIFF:
		return true
	}
	return false
}

// SourceExtensions maps file extensions to whether the scanner imports
// them as image sources.
var SourceExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

func (f Format) String() string {
	return string(f)
}
