package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
	"github.com/verdantmarket/catalog-maintenance/pkg/metrics"
)

type searchCatalogRepo interface {
	DirtySearchProductIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	CountDirtySearchProducts(ctx context.Context) (int64, error)
	RefreshSearchVectors(ctx context.Context, productIDs []uuid.UUID) (int64, error)
}

// SearchHandlerParams collects the dependencies of the search refresh task.
type SearchHandlerParams struct {
	Logger    *logger.Logger
	Catalog   searchCatalogRepo
	Enqueuer  Enqueuer
	Metrics   *metrics.TaskMetrics
	BatchSize int
}

// NewSearchHandler builds the search-index refresh task handler.
func NewSearchHandler(params SearchHandlerParams) (Handler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Enqueuer == nil {
		return nil, fmt.Errorf("enqueuer required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultProductBatchSize
	}
	return &searchHandler{
		logg:      params.Logger,
		catalog:   params.Catalog,
		enqueuer:  params.Enqueuer,
		metrics:   params.Metrics,
		batchSize: batchSize,
	}, nil
}

// searchHandler rebuilds stale search documents batch by batch. The
// vector update and the flag clear happen in one statement, so no
// transaction runner is involved.
type searchHandler struct {
	logg      *logger.Logger
	catalog   searchCatalogRepo
	enqueuer  Enqueuer
	metrics   *metrics.TaskMetrics
	batchSize int
}

func (h *searchHandler) Task() enums.TaskType { return enums.TaskSearchIndexRefresh }

func (h *searchHandler) Handle(ctx context.Context, _ json.RawMessage) error {
	productIDs, err := h.catalog.DirtySearchProductIDs(ctx, h.batchSize)
	if err != nil {
		return fmt.Errorf("select stale products: %w", err)
	}
	if len(productIDs) == 0 {
		h.logg.Debug(ctx, "search index up to date")
		return nil
	}

	refreshed, err := h.catalog.RefreshSearchVectors(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("refresh search vectors: %w", err)
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"products_refreshed": refreshed,
	})
	h.logg.Info(logCtx, "search vectors refreshed")
	h.metrics.AddRows(h.Task().String(), refreshed)

	remaining, err := h.catalog.CountDirtySearchProducts(ctx)
	if err != nil {
		return fmt.Errorf("count stale products: %w", err)
	}
	if remaining > 0 {
		if err := h.enqueuer.Enqueue(ctx, enums.TaskSearchIndexRefresh, nil); err != nil {
			return fmt.Errorf("re-enqueue search refresh: %w", err)
		}
	}
	return nil
}
