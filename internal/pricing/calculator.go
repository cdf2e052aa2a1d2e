package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdantmarket/catalog-maintenance/pkg/enums"
)

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// RuleDiscount is the pricing-relevant projection of an active catalogue
// rule: its reward plus the variants and channels it applies to. An empty
// channel set means the rule applies in every channel.
type RuleDiscount struct {
	RewardValueType enums.RewardValueType
	RewardValue     decimal.Decimal
	VariantIDs      map[uuid.UUID]struct{}
	ChannelIDs      map[uuid.UUID]struct{}
}

// AppliesTo reports whether the rule discounts the given variant in the
// given channel.
func (r RuleDiscount) AppliesTo(variantID, channelID uuid.UUID) bool {
	if _, ok := r.VariantIDs[variantID]; !ok {
		return false
	}
	if len(r.ChannelIDs) == 0 {
		return true
	}
	_, ok := r.ChannelIDs[channelID]
	return ok
}

// ApplyReward discounts a price by a reward. Percentage rewards take the
// given percent off, fixed rewards subtract the amount. The result never
// drops below zero.
func ApplyReward(price decimal.Decimal, valueType enums.RewardValueType, value decimal.Decimal) decimal.Decimal {
	var discounted decimal.Decimal
	switch valueType {
	case enums.RewardValueTypeFixed:
		discounted = price.Sub(value)
	default:
		discounted = price.Mul(hundred.Sub(value)).Div(hundred)
	}
	if discounted.LessThan(zero) {
		return zero
	}
	return discounted
}

// VariantListing is a variant's base price in one channel.
type VariantListing struct {
	VariantID   uuid.UUID
	ChannelID   uuid.UUID
	PriceAmount decimal.Decimal
}

// DiscountedVariantPrice returns the lowest price the listing can reach
// under the applicable rules. With no applicable rule the base price
// stands.
func DiscountedVariantPrice(listing VariantListing, rules []RuleDiscount) decimal.Decimal {
	best := listing.PriceAmount
	for _, rule := range rules {
		if !rule.AppliesTo(listing.VariantID, listing.ChannelID) {
			continue
		}
		discounted := ApplyReward(listing.PriceAmount, rule.RewardValueType, rule.RewardValue)
		if discounted.LessThan(best) {
			best = discounted
		}
	}
	return best
}

// ProductChannelPrices computes the product's discounted price per
// channel: the cheapest discounted variant price among the product's
// variant listings in that channel.
func ProductChannelPrices(listings []VariantListing, rules []RuleDiscount) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, listing := range listings {
		price := DiscountedVariantPrice(listing, rules)
		current, ok := out[listing.ChannelID]
		if !ok || price.LessThan(current) {
			out[listing.ChannelID] = price
		}
	}
	return out
}
