// Package ingest runs the server-side media pipeline: authorize, reserve
// quota, extract metadata, generate derivatives, write bytes, persist the
// MediaRecord, commit the quota charge. Each step is a hard precondition
// for the next; nothing before record creation is user-visible.
package ingest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/wayfare/internal/common"
	"github.com/dmitrijs2005/wayfare/internal/dbx"
	"github.com/dmitrijs2005/wayfare/internal/logging"
	"github.com/dmitrijs2005/wayfare/internal/media/derive"
	"github.com/dmitrijs2005/wayfare/internal/media/meta"
	"github.com/dmitrijs2005/wayfare/internal/server/models"
	"github.com/dmitrijs2005/wayfare/internal/server/quotas"
	"github.com/dmitrijs2005/wayfare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wayfare/internal/server/storage"
)

type Service struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	quotas    *quotas.Service
	store     storage.Storage
	extractor meta.Extractor
	generator *derive.Generator
	logger    logging.Logger
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager, quotaSvc *quotas.Service,
	store storage.Storage, extractor meta.Extractor, generator *derive.Generator,
	logger logging.Logger) *Service {
	return &Service{
		db:        db,
		repos:     repos,
		quotas:    quotaSvc,
		store:     store,
		extractor: extractor,
		generator: generator,
		logger:    logger.With("module", "ingest"),
	}
}

// UploadRequest carries one validated multipart upload into the pipeline.
type UploadRequest struct {
	EntityID     string
	CallerID     string
	OriginalName string
	Category     string
	Comment      string
	// TakenAtOverride, when set, wins over the EXIF capture timestamp.
	TakenAtOverride *time.Time
	Data            []byte
}

// captureInfo is the opaque metadata blob persisted with the record.
type captureInfo struct {
	Format         string `json:"format"`
	Orientation    int    `json:"orientation,omitempty"`
	TimezoneOffset string `json:"timezone_offset,omitempty"`
	CameraMake     string `json:"camera_make,omitempty"`
	CameraModel    string `json:"camera_model,omitempty"`
}

// Upload runs the full pipeline and returns the persisted record. The quota
// reservation taken after authorization is released on every failure path;
// it is committed only after the record exists, so a crash between the two
// undercounts usage rather than overcounting it.
func (s *Service) Upload(ctx context.Context, req *UploadRequest) (*models.MediaRecord, error) {

	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", common.ErrValidation)
	}
	if int64(len(req.Data)) > common.MaxUploadSizeBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrValidation, common.MaxUploadSizeBytes)
	}

	// Step 1: authorize. No further work on failure.
	entity, err := s.repos.Entities(s.db).GetByID(ctx, req.EntityID)
	if err != nil {
		return nil, err
	}
	if entity.UserID != req.CallerID {
		return nil, fmt.Errorf("%w: entity %s", common.ErrForbidden, req.EntityID)
	}

	// Step 2: reserve quota before any disk I/O.
	reserved := int64(len(req.Data))
	if err := s.quotas.Reserve(ctx, entity.UserID, reserved); err != nil {
		return nil, err
	}

	record, charged, err := s.ingest(ctx, req, entity)
	if err != nil {
		if rerr := s.quotas.ReleaseReservation(ctx, entity.UserID, reserved); rerr != nil {
			s.logger.Error(ctx, "failed to release reservation", "user_id", entity.UserID, "error", rerr)
		}
		if errors.Is(err, context.Canceled) {
			// Client went away mid-request: no record, no charge. Bytes
			// already written are orphans for out-of-band cleanup.
			return nil, common.ErrAborted
		}
		return nil, err
	}

	// Step 7: quota commit, strictly after record creation.
	if err := s.quotas.CommitReservation(ctx, entity.UserID, reserved, charged); err != nil {
		s.logger.Error(ctx, "quota commit failed, usage undercounted",
			"user_id", entity.UserID, "bytes", charged, "error", err)
	}

	return record, nil
}

// ingest runs steps 3–6 and reports the total bytes durably written.
func (s *Service) ingest(ctx context.Context, req *UploadRequest, entity *models.TripEntity) (*models.MediaRecord, int64, error) {

	// Step 3: metadata, best effort per field.
	capture, err := s.extractor.Extract(req.Data)
	if err != nil {
		return nil, 0, err
	}

	// Step 4: derivatives. Individual failures are tolerated.
	variants, failures, err := s.generator.Generate(req.Data)
	if err != nil {
		return nil, 0, err
	}
	for name, verr := range failures {
		s.logger.Warn(ctx, "variant generation failed", "variant", name, "error", verr)
	}

	mediaID := uuid.New().String()
	baseKey := storageKeyPrefix(entity.UserID, mediaID)
	originalKey := fmt.Sprintf("%s/original.%s", baseKey, extension(capture.Format))

	// Step 5: durable write, original first and fatal on failure.
	written, err := s.store.WriteObject(ctx, originalKey, bytes.NewReader(req.Data))
	if err != nil {
		return nil, 0, fmt.Errorf("write original: %w", err)
	}

	charged := written
	variantKeys := make(map[string]string, len(variants))
	for name, v := range variants {
		key := fmt.Sprintf("%s/%s.%s", baseKey, name, v.Ext)
		n, err := s.store.WriteObject(ctx, key, bytes.NewReader(v.Data))
		if err != nil {
			s.logger.Warn(ctx, "variant write failed, omitting", "variant", name, "error", err)
			continue
		}
		variantKeys[name] = key
		charged += n
	}

	takenAt := capture.TakenAt
	if req.TakenAtOverride != nil {
		takenAt = req.TakenAtOverride
	}

	metadata, err := json.Marshal(captureInfo{
		Format:         capture.Format,
		Orientation:    capture.Orientation,
		TimezoneOffset: capture.TimezoneOffset,
		CameraMake:     capture.CameraMake,
		CameraModel:    capture.CameraModel,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal capture info: %w", err)
	}

	record := &models.MediaRecord{
		ID:           mediaID,
		EntityID:     entity.ID,
		OwnerID:      entity.UserID,
		URL:          s.store.ObjectURL(originalKey),
		StorageKey:   originalKey,
		OriginalName: req.OriginalName,
		Category:     req.Category,
		Comment:      req.Comment,
		SizeBytes:    charged,
		TakenAt:      takenAt,
		Latitude:     capture.Latitude,
		Longitude:    capture.Longitude,
		Width:        intPtr(capture.Width),
		Height:       intPtr(capture.Height),
		Variants:     variantKeys,
		Metadata:     metadata,
		CreatedAt:    time.Now(),
	}

	// Step 6: record creation, the commit point.
	if err := s.repos.Media(s.db).Create(ctx, record); err != nil {
		return nil, 0, fmt.Errorf("create media record: %w", err)
	}

	s.logger.Info(ctx, "media ingested", "media_id", mediaID, "entity_id", entity.ID,
		"bytes", charged, "variants", len(variantKeys))

	return record, charged, nil
}

// Get returns one record, owner only.
func (s *Service) Get(ctx context.Context, callerID, mediaID string) (*models.MediaRecord, error) {
	record, err := s.repos.Media(s.db).GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != callerID {
		return nil, fmt.Errorf("%w: media %s", common.ErrForbidden, mediaID)
	}
	return record, nil
}

// ListByEntity returns an entity's records, owner only.
func (s *Service) ListByEntity(ctx context.Context, callerID, entityID string) ([]*models.MediaRecord, error) {
	entity, err := s.repos.Entities(s.db).GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if entity.UserID != callerID {
		return nil, fmt.Errorf("%w: entity %s", common.ErrForbidden, entityID)
	}
	return s.repos.Media(s.db).ListByEntity(ctx, entityID)
}

// Delete removes the record, its files and its quota charge. Objects go
// first (a failing delete is only logged, the key is retriable), then the
// record row and the ledger decrement land in one transaction, so a charge
// never outlives its row and the decrement never precedes the file deletes.
func (s *Service) Delete(ctx context.Context, callerID, mediaID string) error {
	record, err := s.repos.Media(s.db).GetByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if record.OwnerID != callerID {
		return fmt.Errorf("%w: media %s", common.ErrForbidden, mediaID)
	}

	if err := s.store.DeleteObject(ctx, record.StorageKey); err != nil {
		s.logger.Warn(ctx, "failed to delete original", "key", record.StorageKey, "error", err)
	}
	for name, key := range record.Variants {
		if err := s.store.DeleteObject(ctx, key); err != nil {
			s.logger.Warn(ctx, "failed to delete variant", "variant", name, "key", key, "error", err)
		}
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Media(tx).Delete(ctx, mediaID); err != nil {
			return err
		}
		return s.repos.Quotas(tx).DecrementStorageUsage(ctx, record.OwnerID, record.SizeBytes)
	})
	if err != nil {
		s.logger.Error(ctx, "failed to delete media record",
			"media_id", mediaID, "user_id", record.OwnerID, "error", err)
		return err
	}

	s.logger.Info(ctx, "media deleted", "media_id", mediaID, "bytes", record.SizeBytes)
	return nil
}

func storageKeyPrefix(userID, mediaID string) string {
	d := time.Now()
	return fmt.Sprintf("users/%s/%d/%02d/%s", userID, d.Year(), int(d.Month()), mediaID)
}

func extension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "":
		return "bin"
	default:
		return format
	}
}

func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
