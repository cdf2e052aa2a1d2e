package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductVariant is a sellable variation of a product. Preorder fields
// stay set until the cleanup task deactivates an expired preorder.
type ProductVariant struct {
	ID                      uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID               uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	SKU                     string     `gorm:"column:sku;not null;uniqueIndex"`
	Name                    string     `gorm:"column:name;not null;default:''"`
	IsPreorder              bool       `gorm:"column:is_preorder;not null;default:false"`
	PreorderGlobalThreshold *int       `gorm:"column:preorder_global_threshold"`
	PreorderEndDate         *time.Time `gorm:"column:preorder_end_date;index"`
	CreatedAt               time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariantChannelListing is the per-channel pricing row of a variant.
type ProductVariantChannelListing struct {
	ID                        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductVariantID          uuid.UUID       `gorm:"column:product_variant_id;type:uuid;not null;uniqueIndex:ux_variant_channel"`
	ChannelID                 uuid.UUID       `gorm:"column:channel_id;type:uuid;not null;uniqueIndex:ux_variant_channel"`
	PriceAmount               decimal.Decimal `gorm:"column:price_amount;type:numeric(12,3);not null"`
	DiscountedPriceAmount     decimal.Decimal `gorm:"column:discounted_price_amount;type:numeric(12,3);not null"`
	PreorderQuantityThreshold *int            `gorm:"column:preorder_quantity_threshold"`
	CreatedAt                 time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                 time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
