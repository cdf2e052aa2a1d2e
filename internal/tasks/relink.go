package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/internal/promotion"
	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
	"github.com/verdantmarket/catalog-maintenance/pkg/metrics"
)

const defaultRuleBatchSize = 250

type relinkRuleRepo interface {
	ActiveDirtyCatalogueRules(ctx context.Context, now time.Time, limit int) ([]models.PromotionRule, error)
	CountActiveDirtyCatalogueRules(ctx context.Context, now time.Time) (int64, error)
	MatchingVariantIDs(ctx context.Context, predicate promotion.CataloguePredicate) ([]uuid.UUID, error)
	LinkedProductIDs(ctx context.Context, ruleIDs []uuid.UUID) ([]uuid.UUID, error)
	ProductIDsForVariants(ctx context.Context, variantIDs []uuid.UUID) ([]uuid.UUID, error)
	ReplaceRuleVariants(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID, variantIDs []uuid.UUID) error
	ClearVariantsDirty(ctx context.Context, tx *gorm.DB, ruleIDs []uuid.UUID) (int64, error)
}

type relinkListingRepo interface {
	MarkListingsDirtyForProducts(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) (int64, error)
}

// RelinkHandlerParams collects the dependencies of the relink task.
type RelinkHandlerParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Rules     relinkRuleRepo
	Listings  relinkListingRepo
	Enqueuer  Enqueuer
	Metrics   *metrics.TaskMetrics
	BatchSize int
}

// NewRelinkHandler builds the promotion-rule relink task handler.
func NewRelinkHandler(params RelinkHandlerParams) (Handler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Rules == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Enqueuer == nil {
		return nil, fmt.Errorf("enqueuer required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultRuleBatchSize
	}
	return &relinkHandler{
		logg:      params.Logger,
		db:        params.DB,
		rules:     params.Rules,
		listings:  params.Listings,
		enqueuer:  params.Enqueuer,
		metrics:   params.Metrics,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

// relinkHandler rebuilds the rule-variant relation for dirty rules of
// active catalogue promotions. Rules without a usable reward keep their
// links untouched; their dirty flag is still cleared so they do not spin.
type relinkHandler struct {
	logg      *logger.Logger
	db        txRunner
	rules     relinkRuleRepo
	listings  relinkListingRepo
	enqueuer  Enqueuer
	metrics   *metrics.TaskMetrics
	batchSize int
	now       func() time.Time
}

func (h *relinkHandler) Task() enums.TaskType { return enums.TaskPromotionRuleRelink }

func (h *relinkHandler) Handle(ctx context.Context, _ json.RawMessage) error {
	now := h.now().UTC()
	rules, err := h.rules.ActiveDirtyCatalogueRules(ctx, now, h.batchSize)
	if err != nil {
		return fmt.Errorf("select dirty rules: %w", err)
	}
	if len(rules) == 0 {
		h.logg.Debug(ctx, "no dirty promotion rules")
		return nil
	}

	ruleIDs := make([]uuid.UUID, 0, len(rules))
	affectedProducts := map[uuid.UUID]struct{}{}
	type ruleUpdate struct {
		ruleID     uuid.UUID
		variantIDs []uuid.UUID
	}
	updates := make([]ruleUpdate, 0, len(rules))

	for _, rule := range rules {
		ruleIDs = append(ruleIDs, rule.ID)
		if rule.RewardValue == nil || rule.RewardValue.IsZero() {
			continue
		}

		predicate, err := promotion.ParsePredicate(rule.CataloguePredicate)
		if err != nil {
			return fmt.Errorf("rule %s: %w", rule.ID, err)
		}

		previous, err := h.rules.LinkedProductIDs(ctx, []uuid.UUID{rule.ID})
		if err != nil {
			return fmt.Errorf("rule %s previous products: %w", rule.ID, err)
		}
		variantIDs, err := h.rules.MatchingVariantIDs(ctx, predicate)
		if err != nil {
			return fmt.Errorf("rule %s matching variants: %w", rule.ID, err)
		}
		next, err := h.rules.ProductIDsForVariants(ctx, variantIDs)
		if err != nil {
			return fmt.Errorf("rule %s next products: %w", rule.ID, err)
		}

		for _, id := range previous {
			affectedProducts[id] = struct{}{}
		}
		for _, id := range next {
			affectedProducts[id] = struct{}{}
		}
		updates = append(updates, ruleUpdate{ruleID: rule.ID, variantIDs: variantIDs})
	}

	productIDs := make([]uuid.UUID, 0, len(affectedProducts))
	for id := range affectedProducts {
		productIDs = append(productIDs, id)
	}

	var listingsFlagged int64
	err = h.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, update := range updates {
			if err := h.rules.ReplaceRuleVariants(ctx, tx, update.ruleID, update.variantIDs); err != nil {
				return fmt.Errorf("replace variants for rule %s: %w", update.ruleID, err)
			}
		}
		flagged, err := h.listings.MarkListingsDirtyForProducts(ctx, tx, productIDs)
		if err != nil {
			return fmt.Errorf("flag listings: %w", err)
		}
		listingsFlagged = flagged
		if _, err := h.rules.ClearVariantsDirty(ctx, tx, ruleIDs); err != nil {
			return fmt.Errorf("clear dirty flags: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"rules_processed":   len(rules),
		"rules_relinked":    len(updates),
		"products_affected": len(productIDs),
		"listings_flagged":  listingsFlagged,
	})
	h.logg.Info(logCtx, "promotion rules relinked")
	h.metrics.AddRows(h.Task().String(), int64(len(rules)))

	if len(productIDs) > 0 {
		if err := h.enqueuer.Enqueue(ctx, enums.TaskDiscountedPriceRecalc, nil); err != nil {
			return fmt.Errorf("enqueue price recalculation: %w", err)
		}
	}

	remaining, err := h.rules.CountActiveDirtyCatalogueRules(ctx, now)
	if err != nil {
		return fmt.Errorf("count remaining dirty rules: %w", err)
	}
	if remaining > 0 {
		if err := h.enqueuer.Enqueue(ctx, enums.TaskPromotionRuleRelink, nil); err != nil {
			return fmt.Errorf("re-enqueue relink: %w", err)
		}
	}
	return nil
}
