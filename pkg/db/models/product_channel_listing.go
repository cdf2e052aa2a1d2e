package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductChannelListing is the per-channel pricing row of a product.
// DiscountedPriceAmount is derived state: the cheapest variant price in
// the channel after applying active catalogue promotions.
type ProductChannelListing struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID             uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_channel"`
	ChannelID             uuid.UUID       `gorm:"column:channel_id;type:uuid;not null;uniqueIndex:ux_product_channel"`
	PriceAmount           decimal.Decimal `gorm:"column:price_amount;type:numeric(12,3);not null"`
	DiscountedPriceAmount decimal.Decimal `gorm:"column:discounted_price_amount;type:numeric(12,3);not null"`
	DiscountedPriceDirty  bool            `gorm:"column:discounted_price_dirty;not null;default:true;index"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
