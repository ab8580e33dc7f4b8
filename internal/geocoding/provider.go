package geocoding

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/usermap/internal/models"
)

// Provider is an interface for resolving locations both ways.
// Geocode turns a free-text place description into coordinates;
// ReverseGeocode turns coordinates into the name of the containing political
// boundary. ReverseGeocode returns an empty name, not an error, when the
// provider knows no boundary for the point.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// ErrNoResults is returned by Geocode when the provider answers with an empty
// result list. It is a legitimate "nothing matched" outcome, distinct from a
// transport failure.
var ErrNoResults = errors.New("geocoding provider returned no results")
