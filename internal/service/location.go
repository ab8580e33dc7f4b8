package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/usermap/internal/coords"
	"github.com/UnknownOlympus/usermap/internal/geocoding"
	"github.com/UnknownOlympus/usermap/internal/metrics"
	"github.com/UnknownOlympus/usermap/internal/models"
	"github.com/UnknownOlympus/usermap/internal/repository"
)

// LocationService orchestrates a location update: resolve the raw input,
// upsert the record, regenerate the export artifact. It is safe for
// concurrent use; all mutable state lives in the repository.
type LocationService struct {
	log          *slog.Logger         // Logger for logging service activities
	repo         repository.Interface // Interface for data repository access
	provider     geocoding.Provider   // Geocoding provider for external geocoding services
	providerName string               // Name of the provider for metrics labeling
	exporter     Exporter             // Sink for the derived map artifact
	metrics      *metrics.Metrics     // Metrics for tracking service performance
}

// Exporter regenerates the map artifact from the full record set.
type Exporter interface {
	Write(ctx context.Context, records []models.Location) error
}

var (
	// ErrEmptyInput is returned when a region update carries no payload.
	ErrEmptyInput = errors.New("empty location input")
	// ErrPlaceNotFound is returned when forward geocoding matched nothing.
	ErrPlaceNotFound = errors.New("no place matched the given name")
	// ErrOutOfRange is returned for coordinates outside the valid geographic ranges.
	ErrOutOfRange = errors.New("coordinates out of valid range")
)

// NewLocationService creates a new instance of LocationService.
func NewLocationService(
	log *slog.Logger,
	repo repository.Interface,
	provider geocoding.Provider,
	providerName string,
	exporter Exporter,
	metrics *metrics.Metrics,
) *LocationService {
	return &LocationService{
		log:          log,
		repo:         repo,
		provider:     provider,
		providerName: providerName,
		exporter:     exporter,
		metrics:      metrics,
	}
}

// UpdateRegion registers a location given a free-text place name. The place
// name itself becomes the display name of the stored record.
func (ls *LocationService) UpdateRegion(ctx context.Context, userID int64, place string) (*models.Location, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		ls.metrics.CommandsProcessed.WithLabelValues("region", "rejected").Inc()
		return nil, ErrEmptyInput
	}

	startTime := time.Now()
	point, err := ls.provider.Geocode(ctx, place)
	ls.metrics.RequestSeconds.WithLabelValues(ls.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		if errors.Is(err, geocoding.ErrNoResults) {
			ls.metrics.CommandsProcessed.WithLabelValues("region", "rejected").Inc()
			return nil, fmt.Errorf("%w: %q", ErrPlaceNotFound, place)
		}
		ls.metrics.CommandsProcessed.WithLabelValues("region", "failure").Inc()
		ls.metrics.APIErrors.Inc()
		return nil, fmt.Errorf("forward geocoding failed: %w", err)
	}

	updatedAt := time.Now()
	if err = ls.repo.UpsertLocation(ctx, userID, place, *point, updatedAt); err != nil {
		ls.metrics.CommandsProcessed.WithLabelValues("region", "failure").Inc()
		return nil, fmt.Errorf("failed to store location: %w", err)
	}

	ls.metrics.CommandsProcessed.WithLabelValues("region", "success").Inc()
	ls.export(ctx)

	return &models.Location{
		UserID:      userID,
		DisplayName: place,
		Latitude:    point.Latitude,
		Longitude:   point.Longitude,
		LastUpdated: updatedAt,
	}, nil
}

// UpdateGeo registers a location given raw coordinate text. The display name
// is reverse geocoded and may legitimately come back empty.
func (ls *LocationService) UpdateGeo(ctx context.Context, userID int64, text string) (*models.Location, error) {
	pair, err := coords.Parse(text)
	if err != nil {
		ls.metrics.CommandsProcessed.WithLabelValues("geo", "rejected").Inc()
		return nil, err
	}

	if !coords.InRange(pair) {
		ls.metrics.CommandsProcessed.WithLabelValues("geo", "rejected").Inc()
		return nil, fmt.Errorf("%w: %v, %v", ErrOutOfRange, pair.Latitude, pair.Longitude)
	}

	startTime := time.Now()
	name, err := ls.provider.ReverseGeocode(ctx, pair.Latitude, pair.Longitude)
	ls.metrics.RequestSeconds.WithLabelValues(ls.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		ls.metrics.CommandsProcessed.WithLabelValues("geo", "failure").Inc()
		ls.metrics.APIErrors.Inc()
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}

	updatedAt := time.Now()
	if err = ls.repo.UpsertLocation(ctx, userID, name, pair, updatedAt); err != nil {
		ls.metrics.CommandsProcessed.WithLabelValues("geo", "failure").Inc()
		return nil, fmt.Errorf("failed to store location: %w", err)
	}

	ls.metrics.CommandsProcessed.WithLabelValues("geo", "success").Inc()
	ls.export(ctx)

	return &models.Location{
		UserID:      userID,
		DisplayName: name,
		Latitude:    pair.Latitude,
		Longitude:   pair.Longitude,
		LastUpdated: updatedAt,
	}, nil
}

// Get returns the stored location for userID. A missing record surfaces as
// repository.ErrNotFound; no export is triggered.
func (ls *LocationService) Get(ctx context.Context, userID int64) (*models.Location, error) {
	loc, err := ls.repo.GetLocation(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ls.metrics.CommandsProcessed.WithLabelValues("get", "rejected").Inc()
			return nil, err
		}
		ls.metrics.CommandsProcessed.WithLabelValues("get", "failure").Inc()
		return nil, fmt.Errorf("failed to read location: %w", err)
	}

	ls.metrics.CommandsProcessed.WithLabelValues("get", "success").Inc()
	return loc, nil
}

// Delete removes the stored location for userID and regenerates the export,
// since the record set changed. Deleting an absent record is a no-op.
func (ls *LocationService) Delete(ctx context.Context, userID int64) error {
	if err := ls.repo.DeleteLocation(ctx, userID); err != nil {
		ls.metrics.CommandsProcessed.WithLabelValues("delete", "failure").Inc()
		return fmt.Errorf("failed to delete location: %w", err)
	}

	ls.metrics.CommandsProcessed.WithLabelValues("delete", "success").Inc()
	ls.export(ctx)

	return nil
}

// export regenerates the artifact from the current record set. It is
// best-effort and never fails the mutation that triggered it: the artifact is
// a derived view and heals on the next mutation.
func (ls *LocationService) export(ctx context.Context) {
	records, err := ls.repo.ListLocations(ctx)
	if err != nil {
		ls.log.ErrorContext(ctx, "Failed to enumerate locations for export", "error", err)
		return
	}

	if err = ls.exporter.Write(ctx, records); err != nil {
		ls.log.WarnContext(ctx, "Failed to regenerate export artifact", "error", err)
		return
	}

	ls.metrics.ExportsWritten.Inc()
}
