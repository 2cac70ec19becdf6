package codec

import (
	"io"

	exif "github.com/dsoprea/go-exif/v3"
)

// exifFormats lists the formats whose containers can carry an EXIF
// orientation tag. Other formats skip the scan entirely.
var exifFormats = map[Format]bool{
	FormatJPEG: true,
	FormatTIFF: true,
	FormatWebP: true,
}

// readOrientation extracts the EXIF orientation (1..8) from an image
// stream. Missing or malformed EXIF data yields 1, the upright default.
func readOrientation(rs io.ReadSeeker) int {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 1
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		return 1
	}

	// The root IFD precedes the thumbnail IFD in the flat scan, so the
	// first valid hit is the one that applies to the full image.
	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		if v, ok := tag.Value.([]uint16); ok && len(v) > 0 && v[0] >= 1 && v[0] <= 8 {
			return int(v[0])
		}
	}
	return 1
}
