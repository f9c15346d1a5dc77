// Package repositories implements the persistence interfaces of the domain
// layer on PostgreSQL.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

const upsertAssociationSQL = `
INSERT INTO plot_associations (plot_id, supplier_id, session_id)
VALUES ($1, $2, $3)
ON CONFLICT (plot_id, supplier_id)
DO UPDATE SET session_id = EXCLUDED.session_id`

const listBySupplierSQL = `
SELECT plot_id, supplier_id, session_id, created_at
FROM plot_associations
WHERE supplier_id = $1
ORDER BY created_at DESC, plot_id`

// AssociationRepo persists plot-to-supplier associations.
type AssociationRepo struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ plot.AssociationRepository = (*AssociationRepo)(nil)

func NewAssociationRepo(pool *pgxpool.Pool, log logging.Logger) *AssociationRepo {
	return &AssociationRepo{pool: pool, logger: log.Named("association_repo")}
}

// SaveBatch upserts the associations in one transaction and reports how many
// were written.  Re-associating a plot to the same supplier refreshes its
// session rather than duplicating the row.
func (r *AssociationRepo) SaveBatch(ctx context.Context, assocs []plot.Association) (int, error) {
	if len(assocs) == 0 {
		return 0, nil
	}
	for _, a := range assocs {
		if a.PlotID == "" || a.SupplierID == "" {
			return 0, errors.New(errors.ErrCodeValidation, "association requires both plot id and supplier id")
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, a := range assocs {
		batch.Queue(upsertAssociationSQL, a.PlotID, a.SupplierID, a.SessionID)
	}

	results := tx.SendBatch(ctx, batch)
	count := 0
	for range assocs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save association")
		}
		count++
	}
	if err := results.Close(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to close batch")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit associations")
	}

	r.logger.Info("plot associations saved",
		logging.String("supplier_id", assocs[0].SupplierID),
		logging.Int("count", count),
	)
	return count, nil
}

// ListBySupplier returns a supplier's associations, newest first.
func (r *AssociationRepo) ListBySupplier(ctx context.Context, supplierID string) ([]plot.Association, error) {
	if supplierID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "supplier id is required")
	}

	rows, err := r.pool.Query(ctx, listBySupplierSQL, supplierID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query associations")
	}
	defer rows.Close()

	var out []plot.Association
	for rows.Next() {
		var a plot.Association
		if err := rows.Scan(&a.PlotID, &a.SupplierID, &a.SessionID, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan association")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "association query failed")
	}
	return out, nil
}
