package promotion

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/catalog-maintenance/internal/repo"
	"github.com/verdantmarket/catalog-maintenance/pkg/db/models"
	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
)

// Repository exposes the promotion-rule queries used by the maintenance tasks.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

const activePromotionCond = "promotions.start_date <= ? AND (promotions.end_date IS NULL OR promotions.end_date >= ?)"

// ActiveDirtyCatalogueRules returns dirty rules of active catalogue
// promotions, ordered by id and capped at limit.
func (r *Repository) ActiveDirtyCatalogueRules(ctx context.Context, now time.Time, limit int) ([]models.PromotionRule, error) {
	var rules []models.PromotionRule
	err := r.DB(ctx).
		Model(&models.PromotionRule{}).
		Joins("JOIN promotions ON promotions.id = promotion_rules.promotion_id").
		Where("promotion_rules.variants_dirty = ?", true).
		Where("promotions.type = ?", enums.PromotionTypeCatalogue).
		Where(activePromotionCond, now, now).
		Order("promotion_rules.id").
		Limit(limit).
		Find(&rules).
		Error
	return rules, err
}

// CountActiveDirtyCatalogueRules reports how many relink candidates remain.
func (r *Repository) CountActiveDirtyCatalogueRules(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.PromotionRule{}).
		Joins("JOIN promotions ON promotions.id = promotion_rules.promotion_id").
		Where("promotion_rules.variants_dirty = ?", true).
		Where("promotions.type = ?", enums.PromotionTypeCatalogue).
		Where(activePromotionCond, now, now).
		Count(&count).
		Error
	return count, err
}

// MatchingVariantIDs evaluates a catalogue predicate against the
// catalog: leaf id sets union, AND children intersect, OR children
// union.
func (r *Repository) MatchingVariantIDs(ctx context.Context, predicate CataloguePredicate) ([]uuid.UUID, error) {
	matched, err := r.evaluatePredicate(ctx, predicate)
	if err != nil {
		return nil, err
	}
	return sortedIDs(matched), nil
}

func (r *Repository) evaluatePredicate(ctx context.Context, predicate CataloguePredicate) (map[uuid.UUID]struct{}, error) {
	if len(predicate.And) > 0 {
		var matched map[uuid.UUID]struct{}
		for _, child := range predicate.And {
			childMatch, err := r.evaluatePredicate(ctx, child)
			if err != nil {
				return nil, err
			}
			if matched == nil {
				matched = childMatch
				continue
			}
			matched = intersect(matched, childMatch)
			if len(matched) == 0 {
				return matched, nil
			}
		}
		return matched, nil
	}

	if len(predicate.Or) > 0 {
		matched := map[uuid.UUID]struct{}{}
		for _, child := range predicate.Or {
			childMatch, err := r.evaluatePredicate(ctx, child)
			if err != nil {
				return nil, err
			}
			for id := range childMatch {
				matched[id] = struct{}{}
			}
		}
		return matched, nil
	}

	return r.matchPredicateLeaf(ctx, predicate)
}

func (r *Repository) matchPredicateLeaf(ctx context.Context, predicate CataloguePredicate) (map[uuid.UUID]struct{}, error) {
	matched := map[uuid.UUID]struct{}{}

	if len(predicate.VariantIDs) > 0 {
		var ids []uuid.UUID
		if err := r.DB(ctx).
			Model(&models.ProductVariant{}).
			Where("id IN ?", predicate.VariantIDs).
			Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		collect(matched, ids)
	}

	if len(predicate.ProductIDs) > 0 {
		var ids []uuid.UUID
		if err := r.DB(ctx).
			Model(&models.ProductVariant{}).
			Where("product_id IN ?", predicate.ProductIDs).
			Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		collect(matched, ids)
	}

	if len(predicate.CategoryIDs) > 0 {
		var ids []uuid.UUID
		if err := r.DB(ctx).
			Model(&models.ProductVariant{}).
			Joins("JOIN products ON products.id = product_variants.product_id").
			Where("products.category_id IN ?", predicate.CategoryIDs).
			Pluck("product_variants.id", &ids).Error; err != nil {
			return nil, err
		}
		collect(matched, ids)
	}

	if len(predicate.CollectionIDs) > 0 {
		var ids []uuid.UUID
		if err := r.DB(ctx).
			Model(&models.ProductVariant{}).
			Joins("JOIN collection_products ON collection_products.product_id = product_variants.product_id").
			Where("collection_products.collection_id IN ?", predicate.CollectionIDs).
			Distinct().
			Pluck("product_variants.id", &ids).Error; err != nil {
			return nil, err
		}
		collect(matched, ids)
	}

	return matched, nil
}

func intersect(a, b map[uuid.UUID]struct{}) map[uuid.UUID]struct{} {
	out := map[uuid.UUID]struct{}{}
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// LinkedProductIDs returns distinct product ids of variants currently
// linked to any of the given rules.
func (r *Repository) LinkedProductIDs(ctx context.Context, ruleIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.PromotionRuleVariant{}).
		Distinct("product_variants.product_id").
		Joins("JOIN product_variants ON product_variants.id = promotion_rule_variants.product_variant_id").
		Where("promotion_rule_variants.promotion_rule_id IN ?", ruleIDs).
		Pluck("product_variants.product_id", &ids).
		Error
	return ids, err
}

// ProductIDsForVariants returns distinct product ids of the given variants.
func (r *Repository) ProductIDsForVariants(ctx context.Context, variantIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.ProductVariant{}).
		Distinct("product_id").
		Where("id IN ?", variantIDs).
		Pluck("product_id", &ids).
		Error
	return ids, err
}

// ReplaceRuleVariants swaps the rule's variant set for the provided one.
func (r *Repository) ReplaceRuleVariants(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID, variantIDs []uuid.UUID) error {
	tx = r.Write(ctx, tx)
	if err := tx.Where("promotion_rule_id = ?", ruleID).Delete(&models.PromotionRuleVariant{}).Error; err != nil {
		return err
	}
	if len(variantIDs) == 0 {
		return nil
	}
	links := make([]models.PromotionRuleVariant, 0, len(variantIDs))
	for _, variantID := range variantIDs {
		links = append(links, models.PromotionRuleVariant{
			PromotionRuleID:  ruleID,
			ProductVariantID: variantID,
		})
	}
	return tx.Create(&links).Error
}

// ClearVariantsDirty resets the dirty flag on the given rules.
func (r *Repository) ClearVariantsDirty(ctx context.Context, tx *gorm.DB, ruleIDs []uuid.UUID) (int64, error) {
	if len(ruleIDs) == 0 {
		return 0, nil
	}
	res := r.Write(ctx, tx).
		Model(&models.PromotionRule{}).
		Where("id IN ?", ruleIDs).
		Update("variants_dirty", false)
	return res.RowsAffected, res.Error
}

// ChannelIDsForRules maps each rule to the channels it is restricted to.
// Rules absent from the result apply in every channel.
func (r *Repository) ChannelIDsForRules(ctx context.Context, ruleIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	var links []models.PromotionRuleChannel
	if err := r.DB(ctx).
		Where("promotion_rule_id IN ?", ruleIDs).
		Find(&links).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]uuid.UUID, len(links))
	for _, link := range links {
		out[link.PromotionRuleID] = append(out[link.PromotionRuleID], link.ChannelID)
	}
	return out, nil
}

// VariantIDsForRules maps each rule to its currently linked variants.
func (r *Repository) VariantIDsForRules(ctx context.Context, ruleIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	var links []models.PromotionRuleVariant
	if err := r.DB(ctx).
		Where("promotion_rule_id IN ?", ruleIDs).
		Find(&links).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]uuid.UUID, len(links))
	for _, link := range links {
		out[link.PromotionRuleID] = append(out[link.PromotionRuleID], link.ProductVariantID)
	}
	return out, nil
}

// ActiveRulesForVariants loads rules of active promotions that are linked
// to any of the given variants and carry a usable reward.
func (r *Repository) ActiveRulesForVariants(ctx context.Context, now time.Time, variantIDs []uuid.UUID) ([]models.PromotionRule, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	var rules []models.PromotionRule
	err := r.DB(ctx).
		Model(&models.PromotionRule{}).
		Distinct("promotion_rules.*").
		Joins("JOIN promotions ON promotions.id = promotion_rules.promotion_id").
		Joins("JOIN promotion_rule_variants ON promotion_rule_variants.promotion_rule_id = promotion_rules.id").
		Where("promotion_rule_variants.product_variant_id IN ?", variantIDs).
		Where("promotions.type = ?", enums.PromotionTypeCatalogue).
		Where(activePromotionCond, now, now).
		Where("promotion_rules.reward_value IS NOT NULL AND promotion_rules.reward_value <> 0").
		Find(&rules).
		Error
	return rules, err
}

func collect(into map[uuid.UUID]struct{}, ids []uuid.UUID) {
	for _, id := range ids {
		into[id] = struct{}{}
	}
}

func sortedIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

