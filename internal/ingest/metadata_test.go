package ingest

import (
	"testing"
	"time"

	"github.com/bep/imagemeta"
)

func exifTag(name string, value any) imagemeta.TagInfo {
	return imagemeta.TagInfo{Source: imagemeta.EXIF, Tag: name, Value: value}
}

func TestHandleTagCaptureTime(t *testing.T) {
	var meta Metadata
	handleTag(&meta, exifTag("DateTimeOriginal", "2025:06:10 14:30:00"))

	want := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	if !meta.CapturedAt.Equal(want) {
		t.Fatalf("captured at = %s, want %s", meta.CapturedAt, want)
	}
}

func TestDateTimeOriginalWinsOverDateTime(t *testing.T) {
	var meta Metadata
	handleTag(&meta, exifTag("DateTimeOriginal", "2025:06:10 14:30:00"))
	handleTag(&meta, exifTag("DateTime", "2025:06:11 09:00:00"))

	if meta.CapturedAt.Day() != 10 {
		t.Fatalf("DateTime overwrote DateTimeOriginal: %s", meta.CapturedAt)
	}
}

func TestDateTimeFallback(t *testing.T) {
	var meta Metadata
	handleTag(&meta, exifTag("DateTime", "2025:06:11 09:00:00"))

	if meta.CapturedAt.IsZero() {
		t.Fatal("DateTime fallback not applied")
	}
}

func TestHandleTagLocationAndDimensions(t *testing.T) {
	var meta Metadata
	handleTag(&meta, exifTag("GPSLatitude", 52.52))
	handleTag(&meta, exifTag("GPSLongitude", 13.405))
	handleTag(&meta, exifTag("PixelXDimension", uint32(4032)))
	handleTag(&meta, exifTag("PixelYDimension", uint32(3024)))

	if meta.Latitude == nil || *meta.Latitude != 52.52 {
		t.Fatalf("latitude = %v, want 52.52", meta.Latitude)
	}
	if meta.Longitude == nil || *meta.Longitude != 13.405 {
		t.Fatalf("longitude = %v, want 13.405", meta.Longitude)
	}
	if meta.Width != 4032 || meta.Height != 3024 {
		t.Fatalf("dimensions = %dx%d, want 4032x3024", meta.Width, meta.Height)
	}
}

func TestHandleTagScreenshotMarker(t *testing.T) {
	var meta Metadata
	handleTag(&meta, exifTag("UserComment", "Screenshot"))
	if !meta.IsScreenshot {
		t.Fatal("screenshot marker in UserComment not detected")
	}

	meta = Metadata{}
	handleTag(&meta, exifTag("Software", "Android screenshot tool"))
	if !meta.IsScreenshot {
		t.Fatal("screenshot marker in Software not detected")
	}

	meta = Metadata{}
	handleTag(&meta, exifTag("UserComment", "holiday"))
	if meta.IsScreenshot {
		t.Fatal("unrelated comment flagged as screenshot")
	}
}

func TestParseExifTimeRejectsGarbage(t *testing.T) {
	if _, ok := parseExifTime("not a timestamp"); ok {
		t.Fatal("garbage parsed as time")
	}
	if _, ok := parseExifTime(42); ok {
		t.Fatal("non-string parsed as time")
	}
}
