package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
	"github.com/verdantmarket/catalog-maintenance/pkg/metrics"
)

type preorderCatalogRepo interface {
	FindExpiredPreorderVariants(ctx context.Context, now time.Time) ([]models.ProductVariant, error)
	DeactivatePreorders(ctx context.Context, tx *gorm.DB, variantIDs []uuid.UUID) (int64, error)
}

// PreorderHandlerParams collects the dependencies of the preorder cleanup task.
type PreorderHandlerParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Catalog preorderCatalogRepo
	Metrics *metrics.TaskMetrics
}

// NewPreorderHandler builds the preorder cleanup task handler.
func NewPreorderHandler(params PreorderHandlerParams) (Handler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &preorderHandler{
		logg:    params.Logger,
		db:      params.DB,
		catalog: params.Catalog,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type preorderHandler struct {
	logg    *logger.Logger
	db      txRunner
	catalog preorderCatalogRepo
	metrics *metrics.TaskMetrics
	now     func() time.Time
}

func (h *preorderHandler) Task() enums.TaskType { return enums.TaskPreorderCleanup }

func (h *preorderHandler) Handle(ctx context.Context, _ json.RawMessage) error {
	now := h.now().UTC()
	variants, err := h.catalog.FindExpiredPreorderVariants(ctx, now)
	if err != nil {
		return fmt.Errorf("find expired preorders: %w", err)
	}
	if len(variants) == 0 {
		h.logg.Debug(ctx, "no expired preorders")
		return nil
	}

	variantIDs := make([]uuid.UUID, 0, len(variants))
	for _, variant := range variants {
		variantIDs = append(variantIDs, variant.ID)
	}

	var deactivated int64
	err = h.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := h.catalog.DeactivatePreorders(ctx, tx, variantIDs)
		if err != nil {
			return err
		}
		deactivated = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("deactivate preorders: %w", err)
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"variants_deactivated": deactivated,
	})
	h.logg.Info(logCtx, "expired preorders deactivated")
	h.metrics.AddRows(h.Task().String(), deactivated)
	return nil
}
