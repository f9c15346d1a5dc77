//go:build integration

package repositories

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("PLOTPROOF_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("PLOTPROOF_TEST_DATABASE_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), "TRUNCATE plot_associations")
	require.NoError(t, err)
	return pool
}

func TestSaveBatchAndListRoundTrip(t *testing.T) {
	pool := setupPool(t)
	repo := NewAssociationRepo(pool, logging.NewNopLogger())
	ctx := context.Background()

	n, err := repo.SaveBatch(ctx, []plot.Association{
		{PlotID: "P1", SupplierID: "S1", SessionID: "sess-a"},
		{PlotID: "P2", SupplierID: "S1", SessionID: "sess-a"},
		{PlotID: "P1", SupplierID: "S2", SessionID: "sess-a"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := repo.ListBySupplier(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, "S1", a.SupplierID)
		assert.False(t, a.CreatedAt.IsZero())
	}
}

func TestSaveBatchUpsertRefreshesSession(t *testing.T) {
	pool := setupPool(t)
	repo := NewAssociationRepo(pool, logging.NewNopLogger())
	ctx := context.Background()

	_, err := repo.SaveBatch(ctx, []plot.Association{{PlotID: "P1", SupplierID: "S1", SessionID: "old"}})
	require.NoError(t, err)

	n, err := repo.SaveBatch(ctx, []plot.Association{{PlotID: "P1", SupplierID: "S1", SessionID: "new"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.ListBySupplier(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, got, 1, "upsert must not duplicate")
	assert.Equal(t, "new", got[0].SessionID)
}
