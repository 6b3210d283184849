// Package models defines server-side data models persisted in the database.
package models

import "time"

// MediaRecord describes one stored image and its derivatives. A record is
// created only after the original and variant bytes are durably written;
// its URL never changes afterwards.
type MediaRecord struct {
	ID string
	// EntityID is the trip entity (trip, day, activity, post) the image is
	// attached to.
	EntityID string
	// OwnerID is the user who is charged for the record's bytes. It is
	// resolved from EntityID at ingestion time and denormalized here so the
	// quota decrement on delete needs no ownership walk.
	OwnerID string

	URL          string
	StorageKey   string
	OriginalName string
	Category     string
	Comment      string

	// SizeBytes is the total durably written for this record: original plus
	// every variant that survived. This is the amount charged to the ledger.
	SizeBytes int64

	// Capture metadata, best effort. Nil when the source carried no EXIF.
	TakenAt   *time.Time
	Latitude  *float64
	Longitude *float64
	Width     *int
	Height    *int

	// Variants maps a variant name (e.g. "thumb") to its storage key.
	Variants map[string]string

	// Metadata is the opaque capture info blob (camera parameters, timezone
	// offset, orientation) serialized as JSON.
	Metadata []byte

	CreatedAt time.Time
}
