package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is the canonical catalog row. The search_vector column is
// maintained with raw SQL only and is deliberately not mapped here.
type Product struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name             string         `gorm:"column:name;not null"`
	Slug             string         `gorm:"column:slug;not null;uniqueIndex"`
	Description      string         `gorm:"column:description;not null;default:''"`
	CategoryID       *uuid.UUID     `gorm:"column:category_id;type:uuid;index"`
	ProductTypeID    uuid.UUID      `gorm:"column:product_type_id;type:uuid;not null;index"`
	SearchKeywords   pq.StringArray `gorm:"column:search_keywords;type:text[]"`
	SearchIndexDirty bool           `gorm:"column:search_index_dirty;not null;default:true;index"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
