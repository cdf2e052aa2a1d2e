package catalog

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
)

func mustCreateTestProductType(t *testing.T, tx *gorm.DB) *models.ProductType {
	t.Helper()
	productType := &models.ProductType{
		ID:          uuid.New(),
		Name:        "Shirt",
		Slug:        fmt.Sprintf("shirt-%s", uuid.NewString()),
		HasVariants: true,
	}
	require.NoError(t, tx.Create(productType).Error, "create product type")
	return productType
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, productTypeID uuid.UUID) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Name:          "Test Shirt",
		Slug:          fmt.Sprintf("test-shirt-%s", uuid.NewString()),
		ProductTypeID: productTypeID,
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

func mustCreateTestChannel(t *testing.T, tx *gorm.DB) *models.Channel {
	t.Helper()
	channel := &models.Channel{
		ID:           uuid.New(),
		Name:         "Web",
		Slug:         fmt.Sprintf("web-%s", uuid.NewString()),
		CurrencyCode: "USD",
		IsActive:     true,
	}
	require.NoError(t, tx.Create(channel).Error, "create channel")
	return channel
}

func mustCreateTestListing(t *testing.T, tx *gorm.DB, productID, channelID uuid.UUID, price string, dirty bool) *models.ProductChannelListing {
	t.Helper()
	amount := decimal.RequireFromString(price)
	listing := &models.ProductChannelListing{
		ID:                    uuid.New(),
		ProductID:             productID,
		ChannelID:             channelID,
		PriceAmount:           amount,
		DiscountedPriceAmount: amount,
		DiscountedPriceDirty:  dirty,
	}
	require.NoError(t, tx.Create(listing).Error, "create product listing")
	// GORM swaps a zero-valued field for its default:true on insert, so force
	// the requested dirty state with an explicit update.
	require.NoError(t, tx.Model(listing).Update("discounted_price_dirty", dirty).Error, "set listing dirty flag")
	listing.DiscountedPriceDirty = dirty
	return listing
}

func mustCreateTestVariantListing(t *testing.T, tx *gorm.DB, variantID, channelID uuid.UUID, price string) *models.ProductVariantChannelListing {
	t.Helper()
	amount := decimal.RequireFromString(price)
	listing := &models.ProductVariantChannelListing{
		ID:                    uuid.New(),
		ProductVariantID:      variantID,
		ChannelID:             channelID,
		PriceAmount:           amount,
		DiscountedPriceAmount: amount,
	}
	require.NoError(t, tx.Create(listing).Error, "create variant listing")
	return listing
}

func mustCreateTestAttribute(t *testing.T, tx *gorm.DB, name string, position int) *models.Attribute {
	t.Helper()
	attribute := &models.Attribute{
		ID:       uuid.New(),
		Name:     name,
		Slug:     fmt.Sprintf("%s-%s", name, uuid.NewString()),
		Position: position,
	}
	require.NoError(t, tx.Create(attribute).Error, "create attribute")
	return attribute
}

func mustCreateTestAttributeValue(t *testing.T, tx *gorm.DB, attributeID uuid.UUID, name string, position int) *models.AttributeValue {
	t.Helper()
	value := &models.AttributeValue{
		ID:          uuid.New(),
		AttributeID: attributeID,
		Name:        name,
		Slug:        fmt.Sprintf("%s-%s", name, uuid.NewString()),
		Position:    position,
	}
	require.NoError(t, tx.Create(value).Error, "create attribute value")
	return value
}

func mustAssignValue(t *testing.T, tx *gorm.DB, variantID, valueID uuid.UUID) {
	t.Helper()
	link := &models.VariantAttributeValue{
		ProductVariantID: variantID,
		AttributeValueID: valueID,
	}
	require.NoError(t, tx.Create(link).Error, "assign attribute value")
}

func mustMarkVariantSelection(t *testing.T, tx *gorm.DB, productTypeID, attributeID uuid.UUID) {
	t.Helper()
	link := &models.ProductTypeVariantAttribute{
		ProductTypeID: productTypeID,
		AttributeID:   attributeID,
	}
	require.NoError(t, tx.Create(link).Error, "mark variant-selection attribute")
}
