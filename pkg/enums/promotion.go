package enums

import "fmt"

// PromotionType distinguishes catalogue promotions (variant-level discounts)
// from order-level promotions (checkout subtotal rewards).
type PromotionType string

const (
	PromotionTypeCatalogue PromotionType = "catalogue"
	PromotionTypeOrder     PromotionType = "order"
)

var validPromotionTypes = []PromotionType{
	PromotionTypeCatalogue,
	PromotionTypeOrder,
}

// String implements fmt.Stringer.
func (p PromotionType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionType.
func (p PromotionType) IsValid() bool {
	for _, candidate := range validPromotionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionType converts raw input into a PromotionType.
func ParsePromotionType(value string) (PromotionType, error) {
	for _, candidate := range validPromotionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion type %q", value)
}

// RewardValueType describes how a promotion rule's reward value is applied.
type RewardValueType string

const (
	RewardValueTypePercentage RewardValueType = "percentage"
	RewardValueTypeFixed      RewardValueType = "fixed"
)

var validRewardValueTypes = []RewardValueType{
	RewardValueTypePercentage,
	RewardValueTypeFixed,
}

// String implements fmt.Stringer.
func (r RewardValueType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RewardValueType.
func (r RewardValueType) IsValid() bool {
	for _, candidate := range validRewardValueTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRewardValueType converts raw input into a RewardValueType.
func ParseRewardValueType(value string) (RewardValueType, error) {
	for _, candidate := range validRewardValueTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reward value type %q", value)
}
