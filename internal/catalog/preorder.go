package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
)

// FindExpiredPreorderVariants returns preorder variants whose end date
// is strictly in the past. Undated preorders never expire on their own.
func (r *Repository) FindExpiredPreorderVariants(ctx context.Context, now time.Time) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := r.DB(ctx).
		Where("is_preorder = ?", true).
		Where("preorder_end_date IS NOT NULL AND preorder_end_date < ?", now).
		Order("id").
		Find(&variants).
		Error
	return variants, err
}

// DeactivatePreorders ends the preorder state of the given variants:
// the preorder flag, global threshold and end date are cleared, along
// with every per-channel quantity threshold.
func (r *Repository) DeactivatePreorders(ctx context.Context, tx *gorm.DB, variantIDs []uuid.UUID) (int64, error) {
	if len(variantIDs) == 0 {
		return 0, nil
	}
	tx = r.Write(ctx, tx)
	res := tx.Model(&models.ProductVariant{}).
		Where("id IN ?", variantIDs).
		Updates(map[string]any{
			"is_preorder":               false,
			"preorder_global_threshold": nil,
			"preorder_end_date":         nil,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	err := tx.Model(&models.ProductVariantChannelListing{}).
		Where("product_variant_id IN ?", variantIDs).
		Update("preorder_quantity_threshold", nil).
		Error
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}
