package models

import (
	"time"

	"github.com/google/uuid"
)

// Attribute describes a product characteristic (size, color, ...).
type Attribute struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AttributeValue is one selectable value of an attribute.
type AttributeValue struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	AttributeID uuid.UUID `gorm:"column:attribute_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null"`
	Position    int       `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// VariantAttributeValue assigns an attribute value to a variant.
type VariantAttributeValue struct {
	ProductVariantID uuid.UUID `gorm:"column:product_variant_id;type:uuid;primaryKey"`
	AttributeValueID uuid.UUID `gorm:"column:attribute_value_id;type:uuid;primaryKey"`
}

// ProductTypeVariantAttribute marks an attribute as variant-selection for a product type.
type ProductTypeVariantAttribute struct {
	ProductTypeID uuid.UUID `gorm:"column:product_type_id;type:uuid;primaryKey"`
	AttributeID   uuid.UUID `gorm:"column:attribute_id;type:uuid;primaryKey"`
}
