package models

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// The full model set must migrate on sqlite: repository tests run there,
// so no model may carry DDL only Postgres can parse. Postgres-side
// defaults live in the goose migrations instead.
func TestModelsMigrateOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:models_migrate?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	if err := conn.AutoMigrate(
		&Category{},
		&ProductType{},
		&Attribute{},
		&AttributeValue{},
		&VariantAttributeValue{},
		&ProductTypeVariantAttribute{},
		&Product{},
		&ProductVariant{},
		&Channel{},
		&ProductChannelListing{},
		&ProductVariantChannelListing{},
		&Collection{},
		&CollectionProduct{},
		&Promotion{},
		&PromotionRule{},
		&PromotionRuleVariant{},
		&PromotionRuleChannel{},
	); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
}
