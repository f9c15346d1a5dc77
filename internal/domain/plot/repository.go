package plot

import (
	"context"
	"time"
)

// Association links a classified plot to a downstream supplier entity.
type Association struct {
	PlotID     string    `json:"plotId"`
	SupplierID string    `json:"supplierId"`
	SessionID  string    `json:"sessionId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AssociationRepository persists plot-to-supplier associations.  SaveBatch
// is an upsert keyed by (plot_id, supplier_id) and returns the number of
// plots associated.
type AssociationRepository interface {
	SaveBatch(ctx context.Context, assocs []Association) (int, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]Association, error)
}
