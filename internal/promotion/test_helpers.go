package promotion

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
)

func mustCreateTestCategory(t *testing.T, tx *gorm.DB) *models.Category {
	t.Helper()
	category := &models.Category{
		ID:   uuid.New(),
		Name: "Apparel",
		Slug: fmt.Sprintf("apparel-%s", uuid.NewString()),
	}
	require.NoError(t, tx.Create(category).Error, "create category")
	return category
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, categoryID *uuid.UUID) *models.Product {
	t.Helper()
	productType := &models.ProductType{
		ID:          uuid.New(),
		Name:        "Shirt",
		Slug:        fmt.Sprintf("shirt-%s", uuid.NewString()),
		HasVariants: true,
	}
	require.NoError(t, tx.Create(productType).Error, "create product type")
	product := &models.Product{
		ID:            uuid.New(),
		Name:          "Test Shirt",
		Slug:          fmt.Sprintf("test-shirt-%s", uuid.NewString()),
		CategoryID:    categoryID,
		ProductTypeID: productType.ID,
	}
	require.NoError(t, tx.Create(product).Error, "create product")
	return product
}

func mustCreateTestVariant(t *testing.T, tx *gorm.DB, productID uuid.UUID) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: productID,
		SKU:       fmt.Sprintf("SKU-%s", uuid.NewString()),
	}
	require.NoError(t, tx.Create(variant).Error, "create variant")
	return variant
}

func mustCreateTestCollection(t *testing.T, tx *gorm.DB, productIDs ...uuid.UUID) *models.Collection {
	t.Helper()
	collection := &models.Collection{
		ID:   uuid.New(),
		Name: "Featured",
		Slug: fmt.Sprintf("featured-%s", uuid.NewString()),
	}
	require.NoError(t, tx.Create(collection).Error, "create collection")
	for _, productID := range productIDs {
		link := &models.CollectionProduct{
			CollectionID: collection.ID,
			ProductID:    productID,
		}
		require.NoError(t, tx.Create(link).Error, "create collection product")
	}
	return collection
}

func mustCreateTestPromotion(t *testing.T, tx *gorm.DB, promotionType enums.PromotionType, start time.Time, end *time.Time) *models.Promotion {
	t.Helper()
	promotion := &models.Promotion{
		ID:        uuid.New(),
		Name:      "Summer Sale",
		Type:      promotionType,
		StartDate: start,
		EndDate:   end,
	}
	require.NoError(t, tx.Create(promotion).Error, "create promotion")
	return promotion
}

func mustCreateTestRule(t *testing.T, tx *gorm.DB, promotionID uuid.UUID, reward *decimal.Decimal, dirty bool) *models.PromotionRule {
	t.Helper()
	rule := &models.PromotionRule{
		ID:              uuid.New(),
		PromotionID:     promotionID,
		Name:            "10 off",
		RewardValueType: enums.RewardValueTypePercentage,
		RewardValue:     reward,
		VariantsDirty:   dirty,
	}
	require.NoError(t, tx.Create(rule).Error, "create rule")
	// GORM swaps a zero-valued field for its default:true on insert, so force
	// the requested dirty state with an explicit update.
	require.NoError(t, tx.Model(rule).Update("variants_dirty", dirty).Error, "set rule dirty flag")
	rule.VariantsDirty = dirty
	return rule
}

func decimalPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
