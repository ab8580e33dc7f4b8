package models

import "time"

// Location is the stored location record for a single user. There is at most
// one record per user; every write overwrites the mutable fields in place.
type Location struct {
	UserID      int64     // UserID is the stable telegram user identity.
	DisplayName string    // DisplayName is the place name; may be empty after reverse geocoding.
	Latitude    float64   // Latitude of the registered location.
	Longitude   float64   // Longitude of the registered location.
	LastUpdated time.Time // LastUpdated is refreshed on every write.
}
