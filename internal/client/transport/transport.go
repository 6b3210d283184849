// Package transport performs one cancelable, progress-reporting upload
// against the media endpoint. It never touches queue state; the caller
// decides what a result means.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dmitrijs2005/wayfare/internal/common"
)

// Destination describes where an uploaded file should land.
type Destination struct {
	EntityID string
	Category string
	Comment  string
	// TakenAt, when set, is sent as an explicit capture-time override.
	TakenAt *time.Time
}

// Record mirrors the server's MediaRecord JSON response.
type Record struct {
	ID           string            `json:"id"`
	EntityID     string            `json:"entityId"`
	URL          string            `json:"url"`
	OriginalName string            `json:"originalName"`
	Category     string            `json:"category,omitempty"`
	Comment      string            `json:"comment,omitempty"`
	SizeBytes    int64             `json:"sizeBytes"`
	TakenAt      *time.Time        `json:"takenAt,omitempty"`
	Latitude     *float64          `json:"latitude,omitempty"`
	Longitude    *float64          `json:"longitude,omitempty"`
	Width        *int              `json:"width,omitempty"`
	Height       *int              `json:"height,omitempty"`
	Variants     map[string]string `json:"variants"`
	Metadata     json.RawMessage   `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Client uploads files to the media endpoint over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a transport client for the given base URL and bearer
// token. A zero timeout means no per-request deadline.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// progressReader counts bytes as the request body is consumed and reports
// percentages up to 99. The final 100 is reported only on success, by
// Upload itself, so it fires exactly once.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	lastPct    int
	onProgress func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	if p.onProgress != nil && p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		if pct > p.lastPct {
			p.lastPct = pct
			p.onProgress(pct)
		}
	}

	return n, err
}

// Upload sends the named file bytes as a multipart POST. onProgress, when
// non-nil, receives monotonically increasing percentages; 100 is delivered
// exactly once, before a successful return. Cancellation of ctx surfaces
// common.ErrAborted. A non-2xx response carries the server's message when
// the body has one.
func (c *Client) Upload(ctx context.Context, name string, data []byte, dest Destination, onProgress func(pct int)) (*Record, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile(common.FileFormField, name)
	if err != nil {
		return nil, fmt.Errorf("multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("multipart: %w", err)
	}

	if dest.Category != "" {
		if err := w.WriteField("category", dest.Category); err != nil {
			return nil, fmt.Errorf("multipart: %w", err)
		}
	}
	if dest.Comment != "" {
		if err := w.WriteField("comment", dest.Comment); err != nil {
			return nil, fmt.Errorf("multipart: %w", err)
		}
	}
	if dest.TakenAt != nil {
		if err := w.WriteField("taken_at", dest.TakenAt.Format(time.RFC3339)); err != nil {
			return nil, fmt.Errorf("multipart: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("multipart: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/entities/%s/media", c.baseURL, dest.EntityID)

	pr := &progressReader{r: body, total: int64(body.Len()), onProgress: onProgress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.ContentLength = pr.total

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return nil, common.ErrAborted
		}
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errorFromResponse(resp)
	}

	record := &Record{}
	if err := json.NewDecoder(resp.Body).Decode(record); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if onProgress != nil {
		onProgress(100)
	}

	return record, nil
}

// errorFromResponse maps a non-2xx response to the shared error taxonomy,
// carrying the server's message when the body has one.
func errorFromResponse(resp *http.Response) error {
	message := fmt.Sprintf("server returned %s", resp.Status)

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		message = body.Message
	}

	var category error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		category = common.ErrValidation
	case http.StatusUnauthorized:
		category = common.ErrUnauthorized
	case http.StatusForbidden:
		category = common.ErrForbidden
	case http.StatusNotFound:
		category = common.ErrNotFound
	case http.StatusRequestEntityTooLarge:
		category = common.ErrQuotaExceeded
	case http.StatusUnsupportedMediaType:
		category = common.ErrUnsupportedMedia
	default:
		category = common.ErrInternal
	}

	return fmt.Errorf("%w: %s", category, message)
}
