package repository_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/UnknownOlympus/usermap/internal/models"
	"github.com/UnknownOlympus/usermap/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRepository_Integration runs the full CRUD cycle against a containerized
// PostgreSQL. It needs a docker daemon, so it only runs when
// TEST_DATABASE_INTEGRATION is set.
func TestRepository_Integration(t *testing.T) {
	if os.Getenv("TEST_DATABASE_INTEGRATION") == "" {
		t.Skip("set TEST_DATABASE_INTEGRATION to run repository integration tests")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("usermap"),
		tcpostgres.WithUsername("usermap"),
		tcpostgres.WithPassword("usermap"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := repository.NewRepository(pool, slog.Default())
	require.NoError(t, repo.EnsureSchema(ctx))

	userID := int64(7)

	// First write creates the record.
	err = repo.UpsertLocation(ctx, userID, "Berlin", models.Coordinates{Latitude: 52.52, Longitude: 13.405}, time.Now())
	require.NoError(t, err)

	first, err := repo.GetLocation(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", first.DisplayName)

	// Second write overwrites in place and refreshes the timestamp.
	err = repo.UpsertLocation(ctx, userID, "Hamburg", models.Coordinates{Latitude: 53.55, Longitude: 9.99}, time.Now())
	require.NoError(t, err)

	second, err := repo.GetLocation(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Hamburg", second.DisplayName)
	assert.InEpsilon(t, 53.55, second.Latitude, 0.0001)
	assert.False(t, second.LastUpdated.Before(first.LastUpdated))

	locations, err := repo.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 1)

	require.NoError(t, repo.DeleteLocation(ctx, userID))

	_, err = repo.GetLocation(ctx, userID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Deleting an absent user is a no-op.
	require.NoError(t, repo.DeleteLocation(ctx, userID))
}
