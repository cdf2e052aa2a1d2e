package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/internal/catalog"
	"github.com/verdantmarket/catalog-maintenance/internal/pricing"
	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
	"github.com/verdantmarket/catalog-maintenance/pkg/metrics"
)

const defaultProductBatchSize = 100

type priceCatalogRepo interface {
	DirtyListingProductIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	CountDirtyListingProducts(ctx context.Context) (int64, error)
	ListingsForProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.ProductChannelListing, error)
	VariantListingsForProducts(ctx context.Context, productIDs []uuid.UUID) ([]catalog.VariantListingRow, error)
	ApplyListingPrices(ctx context.Context, tx *gorm.DB, updates []catalog.ListingPriceUpdate) error
	ApplyVariantListingPrices(ctx context.Context, tx *gorm.DB, updates []catalog.VariantPriceUpdate) error
}

type priceRuleRepo interface {
	ActiveRulesForVariants(ctx context.Context, now time.Time, variantIDs []uuid.UUID) ([]models.PromotionRule, error)
	VariantIDsForRules(ctx context.Context, ruleIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	ChannelIDsForRules(ctx context.Context, ruleIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
}

// PriceHandlerParams collects the dependencies of the price recalc task.
type PriceHandlerParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Catalog   priceCatalogRepo
	Rules     priceRuleRepo
	Enqueuer  Enqueuer
	Metrics   *metrics.TaskMetrics
	BatchSize int
}

// NewPriceHandler builds the discounted-price recalculation task handler.
func NewPriceHandler(params PriceHandlerParams) (Handler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Rules == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if params.Enqueuer == nil {
		return nil, fmt.Errorf("enqueuer required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultProductBatchSize
	}
	return &priceHandler{
		logg:      params.Logger,
		db:        params.DB,
		catalog:   params.Catalog,
		rules:     params.Rules,
		enqueuer:  params.Enqueuer,
		metrics:   params.Metrics,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type priceHandler struct {
	logg      *logger.Logger
	db        txRunner
	catalog   priceCatalogRepo
	rules     priceRuleRepo
	enqueuer  Enqueuer
	metrics   *metrics.TaskMetrics
	batchSize int
	now       func() time.Time
}

func (h *priceHandler) Task() enums.TaskType { return enums.TaskDiscountedPriceRecalc }

func (h *priceHandler) Handle(ctx context.Context, _ json.RawMessage) error {
	now := h.now().UTC()
	productIDs, err := h.catalog.DirtyListingProductIDs(ctx, h.batchSize)
	if err != nil {
		return fmt.Errorf("select dirty products: %w", err)
	}
	if len(productIDs) == 0 {
		h.logg.Debug(ctx, "no dirty channel listings")
		return nil
	}

	listings, err := h.catalog.ListingsForProducts(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("load product listings: %w", err)
	}
	variantRows, err := h.catalog.VariantListingsForProducts(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("load variant listings: %w", err)
	}

	discounts, err := h.loadDiscounts(ctx, now, variantRows)
	if err != nil {
		return err
	}

	variantsByProduct := make(map[uuid.UUID][]pricing.VariantListing)
	variantUpdates := make([]catalog.VariantPriceUpdate, 0, len(variantRows))
	for _, row := range variantRows {
		variantListing := pricing.VariantListing{
			VariantID:   row.VariantID,
			ChannelID:   row.ChannelID,
			PriceAmount: row.PriceAmount,
		}
		variantsByProduct[row.ProductID] = append(variantsByProduct[row.ProductID], variantListing)

		amount := pricing.DiscountedVariantPrice(variantListing, discounts)
		if amount.Equal(row.DiscountedPriceAmount) {
			continue
		}
		variantUpdates = append(variantUpdates, catalog.VariantPriceUpdate{
			ListingID:             row.ListingID,
			DiscountedPriceAmount: amount,
		})
	}

	updates := make([]catalog.ListingPriceUpdate, 0, len(listings))
	for _, listing := range listings {
		if !listing.DiscountedPriceDirty {
			continue
		}
		prices := pricing.ProductChannelPrices(variantsByProduct[listing.ProductID], discounts)
		amount, ok := prices[listing.ChannelID]
		if !ok {
			// No variant priced in this channel: the base price stands.
			amount = listing.PriceAmount
		}
		updates = append(updates, catalog.ListingPriceUpdate{
			ListingID:             listing.ID,
			DiscountedPriceAmount: amount,
		})
	}

	err = h.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := h.catalog.ApplyVariantListingPrices(ctx, tx, variantUpdates); err != nil {
			return fmt.Errorf("apply variant listing prices: %w", err)
		}
		if err := h.catalog.ApplyListingPrices(ctx, tx, updates); err != nil {
			return fmt.Errorf("apply listing prices: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"products_processed":       len(productIDs),
		"listings_updated":         len(updates),
		"variant_listings_updated": len(variantUpdates),
	})
	h.logg.Info(logCtx, "discounted prices recalculated")
	h.metrics.AddRows(h.Task().String(), int64(len(updates)))

	remaining, err := h.catalog.CountDirtyListingProducts(ctx)
	if err != nil {
		return fmt.Errorf("count remaining dirty products: %w", err)
	}
	if remaining > 0 {
		if err := h.enqueuer.Enqueue(ctx, enums.TaskDiscountedPriceRecalc, nil); err != nil {
			return fmt.Errorf("re-enqueue price recalculation: %w", err)
		}
	}
	return nil
}

func (h *priceHandler) loadDiscounts(ctx context.Context, now time.Time, variantRows []catalog.VariantListingRow) ([]pricing.RuleDiscount, error) {
	variantSet := map[uuid.UUID]struct{}{}
	variantIDs := make([]uuid.UUID, 0, len(variantRows))
	for _, row := range variantRows {
		if _, ok := variantSet[row.VariantID]; ok {
			continue
		}
		variantSet[row.VariantID] = struct{}{}
		variantIDs = append(variantIDs, row.VariantID)
	}

	rules, err := h.rules.ActiveRulesForVariants(ctx, now, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	ruleIDs := make([]uuid.UUID, 0, len(rules))
	for _, rule := range rules {
		ruleIDs = append(ruleIDs, rule.ID)
	}
	ruleVariants, err := h.rules.VariantIDsForRules(ctx, ruleIDs)
	if err != nil {
		return nil, fmt.Errorf("load rule variants: %w", err)
	}
	ruleChannels, err := h.rules.ChannelIDsForRules(ctx, ruleIDs)
	if err != nil {
		return nil, fmt.Errorf("load rule channels: %w", err)
	}

	discounts := make([]pricing.RuleDiscount, 0, len(rules))
	for _, rule := range rules {
		if rule.RewardValue == nil {
			continue
		}
		discount := pricing.RuleDiscount{
			RewardValueType: rule.RewardValueType,
			RewardValue:     *rule.RewardValue,
			VariantIDs:      map[uuid.UUID]struct{}{},
		}
		for _, id := range ruleVariants[rule.ID] {
			discount.VariantIDs[id] = struct{}{}
		}
		if channels := ruleChannels[rule.ID]; len(channels) > 0 {
			discount.ChannelIDs = map[uuid.UUID]struct{}{}
			for _, id := range channels {
				discount.ChannelIDs[id] = struct{}{}
			}
		}
		discounts = append(discounts, discount)
	}
	return discounts, nil
}
