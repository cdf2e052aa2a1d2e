package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/internal/catalog"
	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
)

type fakePriceCatalogRepo struct {
	dirtyProducts []uuid.UUID
	remaining     int64
	listings      []models.ProductChannelListing
	variantRows   []catalog.VariantListingRow

	applied        []catalog.ListingPriceUpdate
	appliedVariant []catalog.VariantPriceUpdate
	err            error
}

func (f *fakePriceCatalogRepo) DirtyListingProductIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.dirtyProducts) > limit {
		return f.dirtyProducts[:limit], nil
	}
	return f.dirtyProducts, nil
}

func (f *fakePriceCatalogRepo) CountDirtyListingProducts(ctx context.Context) (int64, error) {
	return f.remaining, nil
}

func (f *fakePriceCatalogRepo) ListingsForProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.ProductChannelListing, error) {
	return f.listings, nil
}

func (f *fakePriceCatalogRepo) VariantListingsForProducts(ctx context.Context, productIDs []uuid.UUID) ([]catalog.VariantListingRow, error) {
	return f.variantRows, nil
}

func (f *fakePriceCatalogRepo) ApplyListingPrices(ctx context.Context, tx *gorm.DB, updates []catalog.ListingPriceUpdate) error {
	f.applied = append(f.applied, updates...)
	return nil
}

func (f *fakePriceCatalogRepo) ApplyVariantListingPrices(ctx context.Context, tx *gorm.DB, updates []catalog.VariantPriceUpdate) error {
	f.appliedVariant = append(f.appliedVariant, updates...)
	return nil
}

type fakePriceRuleRepo struct {
	rules        []models.PromotionRule
	ruleVariants map[uuid.UUID][]uuid.UUID
	ruleChannels map[uuid.UUID][]uuid.UUID
}

func (f *fakePriceRuleRepo) ActiveRulesForVariants(ctx context.Context, now time.Time, variantIDs []uuid.UUID) ([]models.PromotionRule, error) {
	return f.rules, nil
}

func (f *fakePriceRuleRepo) VariantIDsForRules(ctx context.Context, ruleIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	return f.ruleVariants, nil
}

func (f *fakePriceRuleRepo) ChannelIDsForRules(ctx context.Context, ruleIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	return f.ruleChannels, nil
}

func newPriceHandler(t *testing.T, repo *fakePriceCatalogRepo, rules *fakePriceRuleRepo, enqueuer *fakeEnqueuer) Handler {
	t.Helper()
	handler, err := NewPriceHandler(PriceHandlerParams{
		Logger:    testLogger(),
		DB:        fakeTxRunner{},
		Catalog:   repo,
		Rules:     rules,
		Enqueuer:  enqueuer,
		BatchSize: 10,
	})
	if err != nil {
		t.Fatalf("NewPriceHandler: %v", err)
	}
	return handler
}

func dirtyListing(productID, channelID uuid.UUID, price string) models.ProductChannelListing {
	amount := decimal.RequireFromString(price)
	return models.ProductChannelListing{
		ID:                    uuid.New(),
		ProductID:             productID,
		ChannelID:             channelID,
		PriceAmount:           amount,
		DiscountedPriceAmount: amount,
		DiscountedPriceDirty:  true,
	}
}

func TestPriceHandlerNoDirtyListings(t *testing.T) {
	repo := &fakePriceCatalogRepo{}
	enqueuer := &fakeEnqueuer{}
	handler := newPriceHandler(t, repo, &fakePriceRuleRepo{}, enqueuer)

	if err := handler.Handle(context.Background(), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(repo.applied) != 0 {
		t.Fatalf("expected no writes, got %v", repo.applied)
	}
	if len(enqueuer.tasks) != 0 {
		t.Fatalf("expected no re-enqueue, got %v", enqueuer.tasks)
	}
}

func TestPriceHandlerAppliesCheapestVariantPrice(t *testing.T) {
	productID := uuid.New()
	channelID := uuid.New()
	cheapVariant := uuid.New()
	pricierVariant := uuid.New()

	listing := dirtyListing(productID, channelID, "50")
	rule := models.PromotionRule{
		ID:              uuid.New(),
		RewardValueType: enums.RewardValueTypePercentage,
		RewardValue:     rewardPtr("50"),
	}
	pricierListingID := uuid.New()
	repo := &fakePriceCatalogRepo{
		dirtyProducts: []uuid.UUID{productID},
		listings:      []models.ProductChannelListing{listing},
		variantRows: []catalog.VariantListingRow{
			{ListingID: uuid.New(), ProductID: productID, VariantID: cheapVariant, ChannelID: channelID, PriceAmount: decimal.RequireFromString("40")},
			{ListingID: pricierListingID, ProductID: productID, VariantID: pricierVariant, ChannelID: channelID, PriceAmount: decimal.RequireFromString("60")},
		},
	}
	rules := &fakePriceRuleRepo{
		rules:        []models.PromotionRule{rule},
		ruleVariants: map[uuid.UUID][]uuid.UUID{rule.ID: {pricierVariant}},
	}
	enqueuer := &fakeEnqueuer{}
	handler := newPriceHandler(t, repo, rules, enqueuer)

	if err := handler.Handle(context.Background(), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(repo.applied) != 1 {
		t.Fatalf("expected 1 update, got %d", len(repo.applied))
	}
	// Pricier variant halves to 30, beating the cheap variant's 40.
	update := repo.applied[0]
	if update.ListingID != listing.ID {
		t.Fatalf("expected update for listing %s, got %s", listing.ID, update.ListingID)
	}
	if !update.DiscountedPriceAmount.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("expected discounted amount 30, got %s", update.DiscountedPriceAmount)
	}
	variantAmounts := map[uuid.UUID]decimal.Decimal{}
	for _, vu := range repo.appliedVariant {
		variantAmounts[vu.ListingID] = vu.DiscountedPriceAmount
	}
	if !variantAmounts[pricierListingID].Equal(decimal.RequireFromString("30")) {
		t.Fatalf("pricier variant listing: expected 30, got %s", variantAmounts[pricierListingID])
	}
	if len(enqueuer.tasks) != 0 {
		t.Fatalf("expected no re-enqueue when clean, got %v", enqueuer.tasks)
	}
}

func TestPriceHandlerPersistsVariantAmounts(t *testing.T) {
	productID := uuid.New()
	channelID := uuid.New()
	variantID := uuid.New()
	variantListingID := uuid.New()

	// Both amounts start from a zeroed baseline; the sweep must leave
	// neither listing level stale.
	listing := models.ProductChannelListing{
		ID:                   uuid.New(),
		ProductID:            productID,
		ChannelID:            channelID,
		PriceAmount:          decimal.RequireFromString("10"),
		DiscountedPriceDirty: true,
	}
	rule := models.PromotionRule{
		ID:              uuid.New(),
		RewardValueType: enums.RewardValueTypePercentage,
		RewardValue:     rewardPtr("20"),
	}
	repo := &fakePriceCatalogRepo{
		dirtyProducts: []uuid.UUID{productID},
		listings:      []models.ProductChannelListing{listing},
		variantRows: []catalog.VariantListingRow{
			{ListingID: variantListingID, ProductID: productID, VariantID: variantID, ChannelID: channelID, PriceAmount: decimal.RequireFromString("10")},
		},
	}
	rules := &fakePriceRuleRepo{
		rules:        []models.PromotionRule{rule},
		ruleVariants: map[uuid.UUID][]uuid.UUID{rule.ID: {variantID}},
	}
	handler := newPriceHandler(t, repo, rules, &fakeEnqueuer{})

	if err := handler.Handle(context.Background(), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(repo.appliedVariant) != 1 {
		t.Fatalf("expected 1 variant update, got %d", len(repo.appliedVariant))
	}
	if repo.appliedVariant[0].ListingID != variantListingID {
		t.Fatalf("expected variant listing %s, got %s", variantListingID, repo.appliedVariant[0].ListingID)
	}
	if !repo.appliedVariant[0].DiscountedPriceAmount.Equal(decimal.RequireFromString("8")) {
		t.Fatalf("variant listing: expected 8, got %s", repo.appliedVariant[0].DiscountedPriceAmount)
	}
	if len(repo.applied) != 1 || !repo.applied[0].DiscountedPriceAmount.Equal(decimal.RequireFromString("8")) {
		t.Fatalf("product listing: expected 8, got %+v", repo.applied)
	}
}

func TestPriceHandlerSkipsUnchangedVariantAmounts(t *testing.T) {
	productID := uuid.New()
	channelID := uuid.New()
	amount := decimal.RequireFromString("25")
	repo := &fakePriceCatalogRepo{
		dirtyProducts: []uuid.UUID{productID},
		listings:      []models.ProductChannelListing{dirtyListing(productID, channelID, "25")},
		variantRows: []catalog.VariantListingRow{
			{ListingID: uuid.New(), ProductID: productID, VariantID: uuid.New(), ChannelID: channelID, PriceAmount: amount, DiscountedPriceAmount: amount},
		},
	}
	handler := newPriceHandler(t, repo, &fakePriceRuleRepo{}, &fakeEnqueuer{})

	if err := handler.Handle(context.Background(), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(repo.appliedVariant) != 0 {
		t.Fatalf("expected no variant writes for settled amounts, got %v", repo.appliedVariant)
	}
}

func TestPriceHandlerRespectsChannelRestriction(t *testing.T) {
	productID := uuid.New()
	usChannel := uuid.New()
	euChannel := uuid.New()
	variant := uuid.New()

	usListing := dirtyListing(productID, usChannel, "20")
	euListing := dirtyListing(productID, euChannel, "20")
	rule := models.PromotionRule{
		ID:              uuid.New(),
		RewardValueType: enums.RewardValueTypeFixed,
		RewardValue:     rewardPtr("5"),
	}
	repo := &fakePriceCatalogRepo{
		dirtyProducts: []uuid.UUID{productID},
		listings:      []models.ProductChannelListing{usListing, euListing},
		variantRows: []catalog.VariantListingRow{
			{ProductID: productID, VariantID: variant, ChannelID: usChannel, PriceAmount: decimal.RequireFromString("20")},
			{ProductID: productID, VariantID: variant, ChannelID: euChannel, PriceAmount: decimal.RequireFromString("20")},
		},
	}
	rules := &fakePriceRuleRepo{
		rules:        []models.PromotionRule{rule},
		ruleVariants: map[uuid.UUID][]uuid.UUID{rule.ID: {variant}},
		ruleChannels: map[uuid.UUID][]uuid.UUID{rule.ID: {usChannel}},
	}
	handler := newPriceHandler(t, repo, rules, &fakeEnqueuer{})

	if err := handler.Handle(context.Background(), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	byListing := map[uuid.UUID]decimal.Decimal{}
	for _, update := range repo.applied {
		byListing[update.ListingID] = update.DiscountedPriceAmount
	}
	if !byListing[usListing.ID].Equal(decimal.RequireFromString("15")) {
		t.Fatalf("us listing: expected 15, got %s", byListing[usListing.ID])
	}
	if !byListing[euListing.ID].Equal(decimal.RequireFromString("20")) {
		t.Fatalf("eu listing: expected undiscounted 20, got %s", byListing[euListing.ID])
	}
}

func TestPriceHandlerFallsBackToBasePrice(t *testing.T) {
	productID := uuid.New()
	channelID := uuid.New()
	listing := dirtyListing(productID, channelID, "12.5")
	repo := &fakePriceCatalogRepo{
		dirtyProducts: []uuid.UUID{productID},
		listings:      []models.ProductChannelListing{listing},
	}
	handler := newPriceHandler(t, repo, &fakePriceRuleRepo{}, &fakeEnqueuer{})

	if err := handler.Handle(context.Background(), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(repo.applied) != 1 {
		t.Fatalf("expected 1 update, got %d", len(repo.applied))
	}
	if !repo.applied[0].DiscountedPriceAmount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("expected base price kept, got %s", repo.applied[0].DiscountedPriceAmount)
	}
}

func TestPriceHandlerReenqueuesWhileListingsRemain(t *testing.T) {
	productID := uuid.New()
	channelID := uuid.New()
	repo := &fakePriceCatalogRepo{
		dirtyProducts: []uuid.UUID{productID},
		listings:      []models.ProductChannelListing{dirtyListing(productID, channelID, "10")},
		remaining:     2,
	}
	enqueuer := &fakeEnqueuer{}
	handler := newPriceHandler(t, repo, &fakePriceRuleRepo{}, enqueuer)

	if err := handler.Handle(context.Background(), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if enqueuer.enqueued(enums.TaskDiscountedPriceRecalc) != 1 {
		t.Fatalf("expected self re-enqueue, got %v", enqueuer.tasks)
	}
}

func TestPriceHandlerPropagatesSelectErrors(t *testing.T) {
	repo := &fakePriceCatalogRepo{err: errors.New("boom")}
	handler := newPriceHandler(t, repo, &fakePriceRuleRepo{}, &fakeEnqueuer{})

	if err := handler.Handle(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
