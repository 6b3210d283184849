package meta

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/wayfare/internal/common"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func TestExtractDimensionsWithoutExif(t *testing.T) {
	e := NewExifExtractor()

	c, err := e.Extract(encodeJPEG(t, 640, 480))
	require.NoError(t, err)

	assert.Equal(t, "jpeg", c.Format)
	assert.Equal(t, 640, c.Width)
	assert.Equal(t, 480, c.Height)
	assert.Nil(t, c.TakenAt)
	assert.Nil(t, c.Latitude)
}

func TestExtractPNG(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 10, 20))))

	c, err := NewExifExtractor().Extract(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "png", c.Format)
	assert.Equal(t, 10, c.Width)
	assert.Equal(t, 20, c.Height)
}

func TestExtractUndecodable(t *testing.T) {
	_, err := NewExifExtractor().Extract([]byte("definitely not an image"))
	assert.ErrorIs(t, err, common.ErrUnsupportedMedia)
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		offset  string
		wantUTC string
		wantErr bool
	}{
		{
			name:    "with positive offset",
			value:   "2026:07:14 23:30:00",
			offset:  "+02:00",
			wantUTC: "2026-07-14T21:30:00Z",
		},
		{
			name:    "with negative offset",
			value:   "2026:07:14 01:15:00",
			offset:  "-05:00",
			wantUTC: "2026-07-14T06:15:00Z",
		},
		{
			name:    "no offset treated as UTC",
			value:   "2026:01:02 03:04:05",
			offset:  "",
			wantUTC: "2026-01-02T03:04:05Z",
		},
		{name: "garbage timestamp", value: "yesterday", wantErr: true},
		{name: "garbage offset", value: "2026:01:02 03:04:05", offset: "later", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTime(tt.value, tt.offset)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUTC, got.UTC().Format(time.RFC3339))
		})
	}
}

// A capture timestamp plus its recorded offset must reconstruct the local
// calendar date, even when the UTC instant falls on a different day.
func TestLocalDateRoundTrip(t *testing.T) {
	taken, err := ParseDateTime("2026:07:14 23:30:00", "+02:00")
	require.NoError(t, err)

	// 23:30 +02:00 is 21:30 UTC the same day; local date must stay the 14th.
	d, err := LocalDate(taken, "+02:00")
	require.NoError(t, err)
	assert.Equal(t, 14, d.Day())
	assert.Equal(t, time.July, d.Month())

	// At -10:00 the same instant of 2026-07-15T08:30+00 style cases flip the
	// date; verify with an early-morning shot.
	taken2, err := ParseDateTime("2026:07:15 01:00:00", "+11:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-07-14T14:00:00Z", taken2.UTC().Format(time.RFC3339))

	d2, err := LocalDate(taken2, "+11:00")
	require.NoError(t, err)
	assert.Equal(t, 15, d2.Day())
}
