package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/wayfare/internal/common"
	"github.com/dmitrijs2005/wayfare/internal/server/ingest"
	"github.com/dmitrijs2005/wayfare/internal/server/models"
)

// mediaResponse is the JSON shape of one MediaRecord.
type mediaResponse struct {
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

func toMediaResponse(r *models.MediaRecord) *mediaResponse {
	variants := r.Variants
	if variants == nil {
		variants = map[string]string{}
	}
	return &mediaResponse{
		ID:           r.ID,
		EntityID:     r.EntityID,
		URL:          r.URL,
		OriginalName: r.OriginalName,
		Category:     r.Category,
		Comment:      r.Comment,
		SizeBytes:    r.SizeBytes,
		TakenAt:      r.TakenAt,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Width:        r.Width,
		Height:       r.Height,
		Variants:     variants,
		Metadata:     r.Metadata,
		CreatedAt:    r.CreatedAt,
	}
}

func (s *Server) uploadMedia(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile(common.FileFormField)
	if err != nil {
		return writeMessage(c, http.StatusBadRequest, "missing file field")
	}
	if fileHeader.Size > common.MaxUploadSizeBytes {
		return writeMessage(c, http.StatusBadRequest, "file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, common.MaxUploadSizeBytes+1))
	if err != nil {
		return writeError(c, err)
	}
	if int64(len(data)) > common.MaxUploadSizeBytes {
		return writeMessage(c, http.StatusBadRequest, "file too large")
	}

	req := &ingest.UploadRequest{
		EntityID:     c.Param("id"),
		CallerID:     callerID(c),
		OriginalName: fileHeader.Filename,
		Category:     c.FormValue("category"),
		Comment:      c.FormValue("comment"),
		Data:         data,
	}

	if v := c.FormValue("taken_at"); v != "" {
		takenAt, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return writeMessage(c, http.StatusBadRequest, "taken_at must be RFC3339")
		}
		req.TakenAtOverride = &takenAt
	}

	record, err := s.ingest.Upload(ctx, req)
	if err != nil {
		if errors.Is(err, common.ErrAborted) {
			// Client is gone; nothing useful to answer.
			return nil
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, toMediaResponse(record))
}

func (s *Server) getMedia(c echo.Context) error {
	record, err := s.ingest.Get(c.Request().Context(), callerID(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toMediaResponse(record))
}

func (s *Server) listMedia(c echo.Context) error {
	records, err := s.ingest.ListByEntity(c.Request().Context(), callerID(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	out := make([]*mediaResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toMediaResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) deleteMedia(c echo.Context) error {
	if err := s.ingest.Delete(c.Request().Context(), callerID(c), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
