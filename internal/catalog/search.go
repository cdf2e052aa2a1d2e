package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
)

// refreshSearchVectorsSQL recomputes the Postgres search document from
// the product's text columns and keywords.
const refreshSearchVectorsSQL = `
UPDATE products
SET search_vector = to_tsvector('simple',
        coalesce(name, '') || ' ' ||
        coalesce(slug, '') || ' ' ||
        coalesce(description, '') || ' ' ||
        coalesce(array_to_string(search_keywords, ' '), '')),
    search_index_dirty = FALSE,
    updated_at = NOW()
WHERE id IN ?`

// DirtySearchProductIDs returns ids of products whose search document is
// stale, ordered by id and capped at limit.
func (r *Repository) DirtySearchProductIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.Product{}).
		Where("search_index_dirty = ?", true).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).
		Error
	return ids, err
}

// CountDirtySearchProducts reports how many products still need a search refresh.
func (r *Repository) CountDirtySearchProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Product{}).
		Where("search_index_dirty = ?", true).
		Count(&count).
		Error
	return count, err
}

// RefreshSearchVectors rebuilds the search document for the given
// products and clears their dirty flag. Postgres only.
func (r *Repository) RefreshSearchVectors(ctx context.Context, productIDs []uuid.UUID) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).Exec(refreshSearchVectorsSQL, productIDs)
	return res.RowsAffected, res.Error
}

// MarkAllSearchDirty flags every product for a search refresh. Used by
// the full-reindex admin trigger.
func (r *Repository) MarkAllSearchDirty(ctx context.Context, tx *gorm.DB) (int64, error) {
	res := r.Write(ctx, tx).
		Model(&models.Product{}).
		Where("search_index_dirty = ?", false).
		Update("search_index_dirty", true)
	return res.RowsAffected, res.Error
}
