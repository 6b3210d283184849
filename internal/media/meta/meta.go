// Package meta extracts capture metadata from image bytes. Extraction is
// best effort: a source without EXIF still yields dimensions, while a source
// that cannot be decoded at all is rejected as unsupported media.
package meta

import (
	"bytes"
	"fmt"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/dmitrijs2005/wayfare/internal/common"
)

// exifDateTimeLayout is the timestamp format EXIF uses.
const exifDateTimeLayout = "2006:01:02 15:04:05"

// offsetTimeOriginal carries the UTC offset of DateTimeOriginal; goexif has
// no constant for it.
const offsetTimeOriginal = exif.FieldName("OffsetTimeOriginal")

// Capture holds whatever could be read from one image.
type Capture struct {
	Format string
	Width  int
	Height int

	TakenAt        *time.Time
	TimezoneOffset string
	Latitude       *float64
	Longitude      *float64

	Orientation int
	CameraMake  string
	CameraModel string
}

// Extractor decodes capture metadata from original image bytes.
type Extractor interface {
	Extract(data []byte) (*Capture, error)
}

// ExifExtractor reads dimensions via the stdlib decoders and EXIF tags via
// goexif. It implements Extractor.
type ExifExtractor struct{}

func NewExifExtractor() *ExifExtractor {
	return &ExifExtractor{}
}

// Extract returns capture metadata for data. Per-field EXIF failures are
// tolerated; an image whose header cannot be decoded at all fails with
// common.ErrUnsupportedMedia.
func (e *ExifExtractor) Extract(data []byte) (*Capture, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedMedia, err)
	}

	c := &Capture{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// No EXIF segment. Dimensions alone are a valid result.
		return c, nil
	}

	if s, err := stringTag(x, exif.DateTimeOriginal); err == nil {
		offset := ""
		if o, err := stringTag(x, offsetTimeOriginal); err == nil {
			offset = o
		}
		if taken, err := ParseDateTime(s, offset); err == nil {
			c.TakenAt = &taken
			c.TimezoneOffset = offset
		}
	}

	if lat, long, err := x.LatLong(); err == nil {
		c.Latitude = &lat
		c.Longitude = &long
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			c.Orientation = v
		}
	}

	if s, err := stringTag(x, exif.Make); err == nil {
		c.CameraMake = s
	}
	if s, err := stringTag(x, exif.Model); err == nil {
		c.CameraModel = s
	}

	return c, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) (string, error) {
	tag, err := x.Get(name)
	if err != nil {
		return "", err
	}
	return tag.StringVal()
}

// ParseDateTime interprets an EXIF timestamp string together with an
// optional UTC offset ("+02:00"). With no offset the timestamp is taken
// as UTC, which at least keeps its calendar date stable.
func ParseDateTime(value, offset string) (time.Time, error) {
	loc := time.UTC
	if offset != "" {
		parsed, err := time.Parse("-07:00", offset)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse offset %q: %w", offset, err)
		}
		_, seconds := parsed.Zone()
		loc = time.FixedZone(offset, seconds)
	}

	t, err := time.ParseInLocation(exifDateTimeLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

// LocalDate reconstructs the calendar date the photo was taken on, using
// the offset recorded at extraction time.
func LocalDate(takenAt time.Time, offset string) (time.Time, error) {
	loc := time.UTC
	if offset != "" {
		parsed, err := time.Parse("-07:00", offset)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse offset %q: %w", offset, err)
		}
		_, seconds := parsed.Zone()
		loc = time.FixedZone(offset, seconds)
	}

	local := takenAt.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc), nil
}
