package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/usermap/internal/models"
	"github.com/jackc/pgx/v5"
)

// EnsureSchema creates the locations table if it does not exist yet.
// There are no migrations; the schema is small enough to bootstrap in place.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS usermap_locations (
			id BIGINT PRIMARY KEY,
			location TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			lastupdated TIMESTAMPTZ NOT NULL
		);
	`

	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create locations table: %w", err)
	}

	return nil
}

// UpsertLocation inserts or fully overwrites the location record for userID,
// stamping it with updatedAt. The single-statement upsert keeps racing writes
// for the same key serializable without an explicit transaction.
func (r *Repository) UpsertLocation(
	ctx context.Context,
	userID int64,
	displayName string,
	coords models.Coordinates,
	updatedAt time.Time,
) error {
	query := `
		INSERT INTO usermap_locations (id, location, lat, lng, lastupdated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			location = EXCLUDED.location,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			lastupdated = EXCLUDED.lastupdated;
	`

	_, err := r.db.Exec(ctx, query, userID, displayName, coords.Latitude, coords.Longitude, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert location: %w", err)
	}

	r.log.DebugContext(ctx, "Location record written",
		"user_id", userID, "location", displayName, "lat", coords.Latitude, "lng", coords.Longitude)

	return nil
}

// GetLocation returns the location record for userID, or ErrNotFound when the
// user has no stored location.
func (r *Repository) GetLocation(ctx context.Context, userID int64) (*models.Location, error) {
	query := `
		SELECT id, location, lat, lng, lastupdated
		FROM usermap_locations
		WHERE id = $1;
	`

	var loc models.Location
	err := r.db.QueryRow(ctx, query, userID).
		Scan(&loc.UserID, &loc.DisplayName, &loc.Latitude, &loc.Longitude, &loc.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return &loc, nil
}

// DeleteLocation removes the record for userID. Deleting a user without a
// record is not an error.
func (r *Repository) DeleteLocation(ctx context.Context, userID int64) error {
	query := `DELETE FROM usermap_locations WHERE id = $1;`

	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}

	return nil
}

// ListLocations returns all stored location records.
func (r *Repository) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	query := `
		SELECT id, location, lat, lng, lastupdated
		FROM usermap_locations
		ORDER BY id ASC;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var loc models.Location
		if errScan := rows.Scan(&loc.UserID, &loc.DisplayName, &loc.Latitude, &loc.Longitude, &loc.LastUpdated); errScan != nil {
			return nil, fmt.Errorf("failed to scan location: %w", errScan)
		}
		locations = append(locations, loc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return locations, nil
}
