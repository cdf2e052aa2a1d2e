package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/internal/repo"
	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
)

// Repository exposes the catalog queries used by the maintenance tasks.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// MarkListingsDirtyForProducts flags every channel listing of the given
// products for discounted-price recalculation.
func (r *Repository) MarkListingsDirtyForProducts(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res := r.Write(ctx, tx).
		Model(&models.ProductChannelListing{}).
		Where("product_id IN ?", productIDs).
		Where("discounted_price_dirty = ?", false).
		Update("discounted_price_dirty", true)
	return res.RowsAffected, res.Error
}

// DirtyListingProductIDs returns ids of products that have at least one
// listing awaiting recalculation, ordered by id and capped at limit.
func (r *Repository) DirtyListingProductIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.ProductChannelListing{}).
		Distinct("product_id").
		Where("discounted_price_dirty = ?", true).
		Order("product_id").
		Limit(limit).
		Pluck("product_id", &ids).
		Error
	return ids, err
}

// CountDirtyListingProducts reports how many products still have dirty listings.
func (r *Repository) CountDirtyListingProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.ProductChannelListing{}).
		Distinct("product_id").
		Where("discounted_price_dirty = ?", true).
		Count(&count).
		Error
	return count, err
}

// ListingsForProducts loads every channel listing of the given products.
func (r *Repository) ListingsForProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.ProductChannelListing, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var listings []models.ProductChannelListing
	err := r.DB(ctx).
		Where("product_id IN ?", productIDs).
		Order("product_id").
		Find(&listings).
		Error
	return listings, err
}

// VariantListingRow is a variant's channel price together with its
// product and the discounted amount currently on record.
type VariantListingRow struct {
	ListingID             uuid.UUID
	ProductID             uuid.UUID
	VariantID             uuid.UUID
	ChannelID             uuid.UUID
	PriceAmount           decimal.Decimal
	DiscountedPriceAmount decimal.Decimal
}

// VariantListingsForProducts loads per-channel variant prices of the
// given products.
func (r *Repository) VariantListingsForProducts(ctx context.Context, productIDs []uuid.UUID) ([]VariantListingRow, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []VariantListingRow
	err := r.DB(ctx).
		Model(&models.ProductVariantChannelListing{}).
		Select("product_variant_channel_listings.id AS listing_id, product_variants.product_id AS product_id, product_variant_channel_listings.product_variant_id AS variant_id, product_variant_channel_listings.channel_id AS channel_id, product_variant_channel_listings.price_amount AS price_amount, product_variant_channel_listings.discounted_price_amount AS discounted_price_amount").
		Joins("JOIN product_variants ON product_variants.id = product_variant_channel_listings.product_variant_id").
		Where("product_variants.product_id IN ?", productIDs).
		Scan(&rows).
		Error
	return rows, err
}

// ListingPriceUpdate is the recalculated discounted amount for one listing.
type ListingPriceUpdate struct {
	ListingID             uuid.UUID
	DiscountedPriceAmount decimal.Decimal
}

// ApplyListingPrices persists recalculated discounted amounts and clears
// the dirty flag on each updated listing.
func (r *Repository) ApplyListingPrices(ctx context.Context, tx *gorm.DB, updates []ListingPriceUpdate) error {
	tx = r.Write(ctx, tx)
	for _, update := range updates {
		err := tx.Model(&models.ProductChannelListing{}).
			Where("id = ?", update.ListingID).
			Updates(map[string]any{
				"discounted_price_amount": update.DiscountedPriceAmount,
				"discounted_price_dirty":  false,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// VariantPriceUpdate is the recalculated discounted amount for one
// variant channel listing.
type VariantPriceUpdate struct {
	ListingID             uuid.UUID
	DiscountedPriceAmount decimal.Decimal
}

// ApplyVariantListingPrices persists recalculated discounted amounts on
// variant channel listings.
func (r *Repository) ApplyVariantListingPrices(ctx context.Context, tx *gorm.DB, updates []VariantPriceUpdate) error {
	tx = r.Write(ctx, tx)
	for _, update := range updates {
		err := tx.Model(&models.ProductVariantChannelListing{}).
			Where("id = ?", update.ListingID).
			Update("discounted_price_amount", update.DiscountedPriceAmount).
			Error
		if err != nil {
			return err
		}
	}
	return nil
}
