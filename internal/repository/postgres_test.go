package repository_test

import (
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/UnknownOlympus/usermap/internal/models"
	"github.com/UnknownOlympus/usermap/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upsertQuery = `
		INSERT INTO usermap_locations (id, location, lat, lng, lastupdated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			location = EXCLUDED.location,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			lastupdated = EXCLUDED.lastupdated;
	`

const getQuery = `
		SELECT id, location, lat, lng, lastupdated
		FROM usermap_locations
		WHERE id = $1;
	`

const listQuery = `
		SELECT id, location, lat, lng, lastupdated
		FROM usermap_locations
		ORDER BY id ASC;
	`

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("success - create table", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS usermap_locations").
			WillReturnResult(pgxmock.NewResult("CREATE", 0))

		require.NoError(t, repo.EnsureSchema(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - create table", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS usermap_locations").
			WillReturnError(assert.AnError)

		err = repo.EnsureSchema(ctx)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to create locations table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpsertLocation(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	userID := int64(42)
	coords := models.Coordinates{Latitude: 52.52, Longitude: 13.405}
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success - upsert location writes the given timestamp", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
			WithArgs(userID, "Berlin", coords.Latitude, coords.Longitude, updated).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.UpsertLocation(ctx, userID, "Berlin", coords, updated)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - upsert location", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
			WithArgs(userID, "Berlin", coords.Latitude, coords.Longitude, updated).
			WillReturnError(assert.AnError)

		err = repo.UpsertLocation(ctx, userID, "Berlin", coords, updated)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to upsert location")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetLocation(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	userID := int64(42)

	t.Run("success - get location", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
			WithArgs(userID).
			WillReturnRows(
				pgxmock.NewRows([]string{"id", "location", "lat", "lng", "lastupdated"}).
					AddRow(userID, "Berlin", 52.52, 13.405, updated),
			)

		loc, err := repo.GetLocation(ctx, userID)

		require.NoError(t, err)
		require.NotNil(t, loc)
		assert.Equal(t, userID, loc.UserID)
		assert.Equal(t, "Berlin", loc.DisplayName)
		assert.InEpsilon(t, 52.52, loc.Latitude, 0.0001)
		assert.InEpsilon(t, 13.405, loc.Longitude, 0.0001)
		assert.Equal(t, updated, loc.LastUpdated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found - no rows", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "location", "lat", "lng", "lastupdated"}))

		loc, err := repo.GetLocation(ctx, userID)

		require.Nil(t, loc)
		require.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query fails", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
			WithArgs(userID).
			WillReturnError(assert.AnError)

		loc, err := repo.GetLocation(ctx, userID)

		require.Nil(t, loc)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to get location")
		require.NotErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteLocation(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	userID := int64(42)
	query := `DELETE FROM usermap_locations WHERE id = $1;`

	t.Run("success - delete existing", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.DeleteLocation(ctx, userID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - delete absent is a no-op", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		require.NoError(t, repo.DeleteLocation(ctx, userID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - delete fails", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(userID).
			WillReturnError(assert.AnError)

		err = repo.DeleteLocation(ctx, userID)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to delete location")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListLocations(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("success - list all", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
			WillReturnRows(
				pgxmock.NewRows([]string{"id", "location", "lat", "lng", "lastupdated"}).
					AddRow(int64(1), "A", 1.0, 2.0, updated).
					AddRow(int64(2), "B", 3.0, 4.0, updated),
			)

		locations, err := repo.ListLocations(ctx)

		require.NoError(t, err)
		require.Len(t, locations, 2)
		assert.Equal(t, "A", locations[0].DisplayName)
		assert.Equal(t, int64(2), locations[1].UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - empty set", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "location", "lat", "lng", "lastupdated"}))

		locations, err := repo.ListLocations(ctx)

		require.NoError(t, err)
		require.Empty(t, locations)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query fails", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
			WillReturnError(assert.AnError)

		locations, err := repo.ListLocations(ctx)

		require.Nil(t, locations)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to query locations")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan fails", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
			WillReturnRows(
				pgxmock.NewRows([]string{"id", "location", "lat", "lng", "lastupdated"}).
					AddRow("invalid_id", "A", 1.0, 2.0, time.Now()),
			)

		locations, err := repo.ListLocations(ctx)

		require.Nil(t, locations)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to scan location")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
