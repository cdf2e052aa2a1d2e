package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
)

// FindProductType loads a product type by id. A missing type yields
// (nil, nil) so callers can treat it as a warning rather than a failure.
func (r *Repository) FindProductType(ctx context.Context, id uuid.UUID) (*models.ProductType, error) {
	var productType models.ProductType
	err := r.DB(ctx).First(&productType, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &productType, nil
}

// VariantSelectionAttributeIDs returns the attributes a product type
// uses for variant selection.
func (r *Repository) VariantSelectionAttributeIDs(ctx context.Context, productTypeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.ProductTypeVariantAttribute{}).
		Where("product_type_id = ?", productTypeID).
		Pluck("attribute_id", &ids).
		Error
	return ids, err
}

// VariantsOfProductType loads every variant belonging to products of the
// given type, ordered by id.
func (r *Repository) VariantsOfProductType(ctx context.Context, productTypeID uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := r.DB(ctx).
		Model(&models.ProductVariant{}).
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("products.product_type_id = ?", productTypeID).
		Order("product_variants.id").
		Find(&variants).
		Error
	return variants, err
}

// VariantValueRow is one attribute value assigned to a variant, ordered
// for name generation by attribute then value position.
type VariantValueRow struct {
	VariantID uuid.UUID
	ValueName string
}

// VariantValueNames loads the names of the given attributes' values per
// variant, ordered by (attribute position, value position).
func (r *Repository) VariantValueNames(ctx context.Context, variantIDs, attributeIDs []uuid.UUID) ([]VariantValueRow, error) {
	if len(variantIDs) == 0 || len(attributeIDs) == 0 {
		return nil, nil
	}
	var rows []VariantValueRow
	err := r.DB(ctx).
		Model(&models.VariantAttributeValue{}).
		Select("variant_attribute_values.product_variant_id AS variant_id, attribute_values.name AS value_name").
		Joins("JOIN attribute_values ON attribute_values.id = variant_attribute_values.attribute_value_id").
		Joins("JOIN attributes ON attributes.id = attribute_values.attribute_id").
		Where("variant_attribute_values.product_variant_id IN ?", variantIDs).
		Where("attribute_values.attribute_id IN ?", attributeIDs).
		Order("attributes.position, attribute_values.position, attribute_values.name").
		Scan(&rows).
		Error
	return rows, err
}

// VariantRename pairs a variant with its recomputed name.
type VariantRename struct {
	VariantID uuid.UUID
	Name      string
}

// UpdateVariantNames bulk-persists recomputed variant names.
func (r *Repository) UpdateVariantNames(ctx context.Context, tx *gorm.DB, renames []VariantRename) error {
	tx = r.Write(ctx, tx)
	for _, rename := range renames {
		err := tx.Model(&models.ProductVariant{}).
			Where("id = ?", rename.VariantID).
			Update("name", rename.Name).
			Error
		if err != nil {
			return err
		}
	}
	return nil
}
