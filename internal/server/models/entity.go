package models

import "time"

// TripEntity is the minimal view of a travel record (trip, day, activity or
// post) the media pipeline needs: something with an id and an owning user.
// Full entity CRUD lives elsewhere; the pipeline only reads.
type TripEntity struct {
	ID        string
	UserID    string
	Kind      string
	Title     string
	CreatedAt time.Time
}
