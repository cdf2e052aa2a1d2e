package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
)

// Promotion is a time-bounded discount campaign.
type Promotion struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name      string              `gorm:"column:name;not null"`
	Type      enums.PromotionType `gorm:"column:type;not null"`
	StartDate time.Time           `gorm:"column:start_date;not null;index"`
	EndDate   *time.Time          `gorm:"column:end_date;index"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// PromotionRule binds a catalogue predicate and a reward to a promotion.
// VariantsDirty marks the rule-variant relation as stale after the rule
// or the catalog changed.
type PromotionRule struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	PromotionID        uuid.UUID             `gorm:"column:promotion_id;type:uuid;not null;index"`
	Name               string                `gorm:"column:name;not null;default:''"`
	CataloguePredicate json.RawMessage       `gorm:"column:catalogue_predicate;type:jsonb"`
	RewardValueType    enums.RewardValueType `gorm:"column:reward_value_type;not null;default:'percentage'"`
	RewardValue        *decimal.Decimal      `gorm:"column:reward_value;type:numeric(12,3)"`
	VariantsDirty      bool                  `gorm:"column:variants_dirty;not null;default:true;index"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// PromotionRuleVariant links a rule to a variant it currently applies to.
type PromotionRuleVariant struct {
	PromotionRuleID  uuid.UUID `gorm:"column:promotion_rule_id;type:uuid;primaryKey"`
	ProductVariantID uuid.UUID `gorm:"column:product_variant_id;type:uuid;primaryKey"`
}

// PromotionRuleChannel restricts a rule to specific sales channels.
type PromotionRuleChannel struct {
	PromotionRuleID uuid.UUID `gorm:"column:promotion_rule_id;type:uuid;primaryKey"`
	ChannelID       uuid.UUID `gorm:"column:channel_id;type:uuid;primaryKey"`
}
