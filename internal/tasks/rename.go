package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/internal/catalog"
	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
	"github.com/verdantmarket/catalog-maintenance/pkg/metrics"
)

// VariantNameRefreshPayload identifies which variants to rename: every
// variant of products of the given type, using the listed attributes.
type VariantNameRefreshPayload struct {
	ProductTypeID uuid.UUID   `json:"productTypeId"`
	AttributeIDs  []uuid.UUID `json:"attributeIds"`
}

type renameCatalogRepo interface {
	FindProductType(ctx context.Context, id uuid.UUID) (*models.ProductType, error)
	VariantSelectionAttributeIDs(ctx context.Context, productTypeID uuid.UUID) ([]uuid.UUID, error)
	VariantsOfProductType(ctx context.Context, productTypeID uuid.UUID) ([]models.ProductVariant, error)
	VariantValueNames(ctx context.Context, variantIDs, attributeIDs []uuid.UUID) ([]catalog.VariantValueRow, error)
	UpdateVariantNames(ctx context.Context, tx *gorm.DB, renames []catalog.VariantRename) error
}

// RenameHandlerParams collects the dependencies of the rename task.
type RenameHandlerParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Catalog renameCatalogRepo
	Metrics *metrics.TaskMetrics
}

// NewRenameHandler builds the variant-name refresh task handler.
func NewRenameHandler(params RenameHandlerParams) (Handler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &renameHandler{
		logg:    params.Logger,
		db:      params.DB,
		catalog: params.Catalog,
		metrics: params.Metrics,
	}, nil
}

type renameHandler struct {
	logg    *logger.Logger
	db      txRunner
	catalog renameCatalogRepo
	metrics *metrics.TaskMetrics
}

func (h *renameHandler) Task() enums.TaskType { return enums.TaskVariantNameRefresh }

func (h *renameHandler) Handle(ctx context.Context, payload json.RawMessage) error {
	if len(payload) == 0 {
		return fmt.Errorf("rename payload required")
	}
	var req VariantNameRefreshPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decode rename payload: %w", err)
	}
	if req.ProductTypeID == uuid.Nil {
		return fmt.Errorf("product type id required")
	}

	productType, err := h.catalog.FindProductType(ctx, req.ProductTypeID)
	if err != nil {
		return fmt.Errorf("load product type: %w", err)
	}
	if productType == nil {
		logCtx := h.logg.WithField(ctx, "product_type_id", req.ProductTypeID.String())
		h.logg.Warn(logCtx, "product type no longer exists, skipping variant rename")
		return nil
	}

	selection, err := h.catalog.VariantSelectionAttributeIDs(ctx, req.ProductTypeID)
	if err != nil {
		return fmt.Errorf("load variant-selection attributes: %w", err)
	}
	attributeIDs := intersect(selection, req.AttributeIDs)
	if len(attributeIDs) == 0 {
		h.logg.Debug(ctx, "no variant-selection attributes affected")
		return nil
	}

	variants, err := h.catalog.VariantsOfProductType(ctx, req.ProductTypeID)
	if err != nil {
		return fmt.Errorf("load variants: %w", err)
	}
	if len(variants) == 0 {
		return nil
	}
	variantIDs := make([]uuid.UUID, 0, len(variants))
	for _, variant := range variants {
		variantIDs = append(variantIDs, variant.ID)
	}

	valueRows, err := h.catalog.VariantValueNames(ctx, variantIDs, attributeIDs)
	if err != nil {
		return fmt.Errorf("load attribute values: %w", err)
	}
	namesByVariant := make(map[uuid.UUID][]string, len(variants))
	for _, row := range valueRows {
		namesByVariant[row.VariantID] = append(namesByVariant[row.VariantID], row.ValueName)
	}

	renames := make([]catalog.VariantRename, 0, len(variants))
	for _, variant := range variants {
		name := strings.Join(namesByVariant[variant.ID], " / ")
		if name == "" {
			name = variant.SKU
		}
		if name == variant.Name {
			continue
		}
		renames = append(renames, catalog.VariantRename{VariantID: variant.ID, Name: name})
	}
	if len(renames) > 0 {
		err = h.db.WithTx(ctx, func(tx *gorm.DB) error {
			return h.catalog.UpdateVariantNames(ctx, tx, renames)
		})
		if err != nil {
			return fmt.Errorf("update variant names: %w", err)
		}
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"product_type_id":  req.ProductTypeID.String(),
		"variants_scanned": len(variants),
		"variants_renamed": len(renames),
	})
	h.logg.Info(logCtx, "variant names refreshed")
	h.metrics.AddRows(h.Task().String(), int64(len(renames)))
	return nil
}

func intersect(a, b []uuid.UUID) []uuid.UUID {
	inB := make(map[uuid.UUID]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []uuid.UUID
	for _, id := range a {
		if _, ok := inB[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
