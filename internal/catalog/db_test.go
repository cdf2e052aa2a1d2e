package catalog

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Category{},
		&models.ProductType{},
		&models.Attribute{},
		&models.AttributeValue{},
		&models.VariantAttributeValue{},
		&models.ProductTypeVariantAttribute{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Channel{},
		&models.ProductChannelListing{},
		&models.ProductVariantChannelListing{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}
