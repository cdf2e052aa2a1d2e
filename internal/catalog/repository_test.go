package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
)

func TestMarkListingsDirtyForProducts(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	productType := mustCreateTestProductType(t, conn)
	product := mustCreateTestProduct(t, conn, productType.ID)
	other := mustCreateTestProduct(t, conn, productType.ID)
	channel := mustCreateTestChannel(t, conn)

	clean := mustCreateTestListing(t, conn, product.ID, channel.ID, "10", false)
	mustCreateTestListing(t, conn, other.ID, channel.ID, "10", false)

	affected, err := repo.MarkListingsDirtyForProducts(ctx, conn, []uuid.UUID{product.ID})
	if err != nil {
		t.Fatalf("MarkListingsDirtyForProducts: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 listing flagged, got %d", affected)
	}

	var reloaded models.ProductChannelListing
	if err := conn.First(&reloaded, "id = ?", clean.ID).Error; err != nil {
		t.Fatalf("reload listing: %v", err)
	}
	if !reloaded.DiscountedPriceDirty {
		t.Fatal("expected listing to be flagged dirty")
	}

	// Re-flagging already dirty listings is a no-op.
	affected, err = repo.MarkListingsDirtyForProducts(ctx, conn, []uuid.UUID{product.ID})
	if err != nil {
		t.Fatalf("MarkListingsDirtyForProducts again: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected no rows on second pass, got %d", affected)
	}
}

func TestDirtyListingProductIDs(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	productType := mustCreateTestProductType(t, conn)
	dirtyProduct := mustCreateTestProduct(t, conn, productType.ID)
	cleanProduct := mustCreateTestProduct(t, conn, productType.ID)
	ch1 := mustCreateTestChannel(t, conn)
	ch2 := mustCreateTestChannel(t, conn)

	// Two dirty listings on the same product must yield one id.
	mustCreateTestListing(t, conn, dirtyProduct.ID, ch1.ID, "10", true)
	mustCreateTestListing(t, conn, dirtyProduct.ID, ch2.ID, "12", true)
	mustCreateTestListing(t, conn, cleanProduct.ID, ch1.ID, "10", false)

	ids, err := repo.DirtyListingProductIDs(ctx, 10)
	if err != nil {
		t.Fatalf("DirtyListingProductIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != dirtyProduct.ID {
		t.Fatalf("expected [%s], got %v", dirtyProduct.ID, ids)
	}

	count, err := repo.CountDirtyListingProducts(ctx)
	if err != nil {
		t.Fatalf("CountDirtyListingProducts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 dirty product, got %d", count)
	}
}

func TestVariantListingsForProducts(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	productType := mustCreateTestProductType(t, conn)
	product := mustCreateTestProduct(t, conn, productType.ID)
	variant := mustCreateTestVariant(t, conn, product.ID)
	channel := mustCreateTestChannel(t, conn)
	variantListing := mustCreateTestVariantListing(t, conn, variant.ID, channel.ID, "19.99")

	unrelated := mustCreateTestProduct(t, conn, productType.ID)
	unrelatedVariant := mustCreateTestVariant(t, conn, unrelated.ID)
	mustCreateTestVariantListing(t, conn, unrelatedVariant.ID, channel.ID, "5")

	rows, err := repo.VariantListingsForProducts(ctx, []uuid.UUID{product.ID})
	if err != nil {
		t.Fatalf("VariantListingsForProducts: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.ProductID != product.ID || row.VariantID != variant.ID || row.ChannelID != channel.ID {
		t.Fatalf("unexpected row ids: %+v", row)
	}
	if row.ListingID != variantListing.ID {
		t.Fatalf("expected listing id %s, got %s", variantListing.ID, row.ListingID)
	}
	if !row.PriceAmount.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("unexpected price: %s", row.PriceAmount)
	}
	if !row.DiscountedPriceAmount.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("unexpected discounted amount: %s", row.DiscountedPriceAmount)
	}
}

func TestApplyVariantListingPrices(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	productType := mustCreateTestProductType(t, conn)
	product := mustCreateTestProduct(t, conn, productType.ID)
	variant := mustCreateTestVariant(t, conn, product.ID)
	channel := mustCreateTestChannel(t, conn)
	listing := mustCreateTestVariantListing(t, conn, variant.ID, channel.ID, "10")

	err := repo.ApplyVariantListingPrices(ctx, conn, []VariantPriceUpdate{
		{ListingID: listing.ID, DiscountedPriceAmount: decimal.RequireFromString("8")},
	})
	if err != nil {
		t.Fatalf("ApplyVariantListingPrices: %v", err)
	}

	var reloaded models.ProductVariantChannelListing
	if err := conn.First(&reloaded, "id = ?", listing.ID).Error; err != nil {
		t.Fatalf("reload variant listing: %v", err)
	}
	if !reloaded.DiscountedPriceAmount.Equal(decimal.RequireFromString("8")) {
		t.Fatalf("expected amount 8, got %s", reloaded.DiscountedPriceAmount)
	}
	if !reloaded.PriceAmount.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("expected base price untouched, got %s", reloaded.PriceAmount)
	}
}

func TestApplyListingPrices(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	productType := mustCreateTestProductType(t, conn)
	product := mustCreateTestProduct(t, conn, productType.ID)
	channel := mustCreateTestChannel(t, conn)
	listing := mustCreateTestListing(t, conn, product.ID, channel.ID, "30", true)

	err := repo.ApplyListingPrices(ctx, conn, []ListingPriceUpdate{
		{ListingID: listing.ID, DiscountedPriceAmount: decimal.RequireFromString("22.5")},
	})
	if err != nil {
		t.Fatalf("ApplyListingPrices: %v", err)
	}

	var reloaded models.ProductChannelListing
	if err := conn.First(&reloaded, "id = ?", listing.ID).Error; err != nil {
		t.Fatalf("reload listing: %v", err)
	}
	if !reloaded.DiscountedPriceAmount.Equal(decimal.RequireFromString("22.5")) {
		t.Fatalf("expected amount 22.5, got %s", reloaded.DiscountedPriceAmount)
	}
	if reloaded.DiscountedPriceDirty {
		t.Fatal("expected dirty flag cleared")
	}
}

func TestDirtySearchProductIDs(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	productType := mustCreateTestProductType(t, conn)
	dirty := mustCreateTestProduct(t, conn, productType.ID)
	if err := conn.Model(&models.Product{}).
		Where("id = ?", dirty.ID).
		Update("search_index_dirty", true).Error; err != nil {
		t.Fatalf("flag product: %v", err)
	}
	clean := mustCreateTestProduct(t, conn, productType.ID)
	if err := conn.Model(&models.Product{}).
		Where("id = ?", clean.ID).
		Update("search_index_dirty", false).Error; err != nil {
		t.Fatalf("clear product: %v", err)
	}

	ids, err := repo.DirtySearchProductIDs(ctx, 10)
	if err != nil {
		t.Fatalf("DirtySearchProductIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != dirty.ID {
		t.Fatalf("expected [%s], got %v", dirty.ID, ids)
	}

	count, err := repo.CountDirtySearchProducts(ctx)
	if err != nil {
		t.Fatalf("CountDirtySearchProducts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 dirty product, got %d", count)
	}
}

func TestFindProductType(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	created := mustCreateTestProductType(t, conn)

	found, err := repo.FindProductType(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindProductType: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("expected product type %s, got %+v", created.ID, found)
	}

	missing, err := repo.FindProductType(ctx, uuid.New())
	if err != nil {
		t.Fatalf("FindProductType missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v", missing)
	}
}

func TestVariantValueNamesOrdering(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	productType := mustCreateTestProductType(t, conn)
	product := mustCreateTestProduct(t, conn, productType.ID)
	variant := mustCreateTestVariant(t, conn, product.ID)

	color := mustCreateTestAttribute(t, conn, "Color", 1)
	size := mustCreateTestAttribute(t, conn, "Size", 0)
	material := mustCreateTestAttribute(t, conn, "Material", 2)
	mustMarkVariantSelection(t, conn, productType.ID, color.ID)
	mustMarkVariantSelection(t, conn, productType.ID, size.ID)

	red := mustCreateTestAttributeValue(t, conn, color.ID, "Red", 0)
	large := mustCreateTestAttributeValue(t, conn, size.ID, "L", 1)
	cotton := mustCreateTestAttributeValue(t, conn, material.ID, "Cotton", 0)
	mustAssignValue(t, conn, variant.ID, red.ID)
	mustAssignValue(t, conn, variant.ID, large.ID)
	mustAssignValue(t, conn, variant.ID, cotton.ID)

	selection, err := repo.VariantSelectionAttributeIDs(ctx, productType.ID)
	if err != nil {
		t.Fatalf("VariantSelectionAttributeIDs: %v", err)
	}
	if len(selection) != 2 {
		t.Fatalf("expected 2 selection attributes, got %v", selection)
	}

	rows, err := repo.VariantValueNames(ctx, []uuid.UUID{variant.ID}, selection)
	if err != nil {
		t.Fatalf("VariantValueNames: %v", err)
	}
	// Size has position 0, Color position 1; Material is not selected.
	if len(rows) != 2 {
		t.Fatalf("expected 2 values, got %d", len(rows))
	}
	if rows[0].ValueName != "L" || rows[1].ValueName != "Red" {
		t.Fatalf("unexpected order: %+v", rows)
	}
}

func TestUpdateVariantNames(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	productType := mustCreateTestProductType(t, conn)
	product := mustCreateTestProduct(t, conn, productType.ID)
	variant := mustCreateTestVariant(t, conn, product.ID)

	err := repo.UpdateVariantNames(ctx, conn, []VariantRename{
		{VariantID: variant.ID, Name: "L / Red"},
	})
	if err != nil {
		t.Fatalf("UpdateVariantNames: %v", err)
	}

	var reloaded models.ProductVariant
	if err := conn.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.Name != "L / Red" {
		t.Fatalf("expected renamed variant, got %q", reloaded.Name)
	}
}
