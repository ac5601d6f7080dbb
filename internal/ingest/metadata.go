package ingest

import (
	"bytes"
	"strings"
	"time"

	"github.com/bep/imagemeta"
)

// exifTimeLayout is the colon-separated timestamp format EXIF uses.
const exifTimeLayout = "2006:01:02 15:04:05"

// Metadata holds the capture attributes extracted from an image file.
type Metadata struct {
	CapturedAt   time.Time
	Latitude     *float64
	Longitude    *float64
	Width        int
	Height       int
	IsScreenshot bool
}

var wantedExifTags = map[string]bool{
	"DateTimeOriginal": true,
	"DateTime":         true,
	"GPSLatitude":      true,
	"GPSLongitude":     true,
	"PixelXDimension":  true,
	"PixelYDimension":  true,
	"UserComment":      true,
	"Software":         true,
}

// ExtractMetadata reads EXIF/XMP capture attributes from raw image data.
// Files with no usable metadata yield a zero CapturedAt; the caller falls
// back to the file modification time.
func ExtractMetadata(data []byte) (Metadata, error) {
	var meta Metadata

	err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if ti.Source == imagemeta.EXIF {
				return wantedExifTags[ti.Tag]
			}
			return ti.Tag == "UserComment" || ti.Tag == "Description"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			handleTag(&meta, ti)
			return nil
		},
	})
	if err != nil {
		return meta, err
	}
	return meta, nil
}

func handleTag(meta *Metadata, ti imagemeta.TagInfo) {
	switch ti.Tag {
	case "DateTimeOriginal":
		if t, ok := parseExifTime(ti.Value); ok {
			meta.CapturedAt = t
		}
	case "DateTime":
		// DateTimeOriginal wins when both are present.
		if meta.CapturedAt.IsZero() {
			if t, ok := parseExifTime(ti.Value); ok {
				meta.CapturedAt = t
			}
		}
	case "GPSLatitude":
		if v, ok := toFloat(ti.Value); ok {
			meta.Latitude = &v
		}
	case "GPSLongitude":
		if v, ok := toFloat(ti.Value); ok {
			meta.Longitude = &v
		}
	case "PixelXDimension":
		if v, ok := toInt(ti.Value); ok {
			meta.Width = v
		}
	case "PixelYDimension":
		if v, ok := toInt(ti.Value); ok {
			meta.Height = v
		}
	case "UserComment", "Description", "Software":
		if s, ok := ti.Value.(string); ok && strings.Contains(strings.ToLower(s), "screenshot") {
			meta.IsScreenshot = true
		}
	}
}

func parseExifTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(exifTimeLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return int(x), true
	case float64:
		return int(x), true
	}
	return 0, false
}
