package codec

import "testing"

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"canonical jpeg", "jpeg", FormatJPEG, false},
		{"jpg alias", "jpg", FormatJPEG, false},
		{"upper case", "PNG", FormatPNG, false},
		{"mixed case", "WebP", FormatWebP, false},
		{"leading dot", ".gif", FormatGIF, false},
		{"tif alias", "tif", FormatTIFF, false},
		{"tiff canonical", "tiff", FormatTIFF, false},
		{"bmp", "bmp", FormatBMP, false},
		{"auto", "auto", FormatAuto, false},
		{"surrounding space", "  jpeg ", FormatJPEG, false},
		{"empty", "", FormatUnknown, true},
		{"unknown name", "heic", FormatUnknown, true},
		{"garbage", "not-a-format", FormatUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatExt(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJPEG, ".jpg"},
		{FormatPNG, ".png"},
		{FormatWebP, ".webp"},
		{FormatGIF, ".gif"},
		{FormatBMP, ".bmp"},
		{FormatTIFF, ".tiff"},
		{FormatAuto, ""},
		{FormatUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.Ext(); got != tt.want {
				t.Errorf("%v.Ext() = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestFormatLossy(t *testing.T) {
	lossy := map[Format]bool{
		FormatJPEG: true,
		FormatWebP: true,
		FormatPNG:  false,
		FormatGIF:  false,
		FormatBMP:  false,
		FormatTIFF: false,
		FormatAuto: false,
	}

	for f, want := range lossy {
		if got := f.Lossy(); got != want {
			t.Errorf("%v.Lossy() = %v, want %v", f, got, want)
		}
	}
}

func TestFormatSupportsAlpha(t *testing.T) {
	alpha := map[Format]bool{
		FormatPNG:  true,
		FormatWebP: true,
		FormatGIF:  true,
		FormatTIFF: true,
		FormatJPEG: false,
		FormatBMP:  false,
	}

	for f, want := range alpha {
		if got := f.SupportsAlpha(); got != want {
			t.Errorf("%v.SupportsAlpha() = %v, want %v", f, got, want)
		}
	}
}

func TestEncodeFormats(t *testing.T) {
	formats := EncodeFormats()
	if len(formats) != 6 {
		t.Fatalf("EncodeFormats() returned %d formats, want 6", len(formats))
	}

	for _, f := range formats {
		if !f.Encodable() {
			t.Errorf("%v listed in EncodeFormats but Encodable() is false", f)
		}
		if f.Ext() == "" {
			t.Errorf("%v has no extension", f)
		}
	}

	if FormatAuto.Encodable() {
		t.Error("FormatAuto should not be a concrete encode target")
	}
	if FormatUnknown.Encodable() {
		t.Error("FormatUnknown should not be a concrete encode target")
	}
}

func TestSourceExtensions(t *testing.T) {
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff", ".tif"} {
		if !SourceExtensions[ext] {
			t.Errorf("extension %s should be a recognized source", ext)
		}
	}
	for _, ext := range []string{".txt", ".mp4", ".pdf", ""} {
		if SourceExtensions[ext] {
			t.Errorf("extension %s should not be a recognized source", ext)
		}
	}
}
