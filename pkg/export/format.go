package export

import (
	"fmt"
	"strings"
)

// Format is the encoding of an exported image.
type Format int

const (
	// Raster exports a PNG bitmap.
	Raster Format = iota
	// Vector exports an SVG document.
	Vector
)

// ParseFormat accepts "png"/"raster" and "svg"/"vector", ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "raster":
		return Raster, nil
	case "svg", "vector":
		return Vector, nil
	}
	return 0, fmt.Errorf("unknown export format %q", s)
}

func (f Format) String() string {
	switch f {
	case Raster:
		return "png"
	case Vector:
		return "svg"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the file suffix including the dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// MIMEType returns the media type of encoded images.
func (f Format) MIMEType() string {
	if f == Vector {
		return "image/svg+xml"
	}
	return "image/png"
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// DefaultFileName is used when an export request carries no name.
const DefaultFileName = "export"

// NormalizeFileName appends the format's extension unless name already ends
// with it (compared without regard to case).
func NormalizeFileName(name string, f Format) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultFileName
	}
	ext := f.Extension()
	if len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext) {
		return name
	}
	return name + ext
}
