package enums

import "fmt"

// TaskType names a queue-dispatched maintenance task.
type TaskType string

const (
	TaskPromotionRuleRelink   TaskType = "promotion-rule-relink"
	TaskDiscountedPriceRecalc TaskType = "discounted-price-recalc"
	TaskVariantNameRefresh    TaskType = "variant-name-refresh"
	TaskPreorderCleanup       TaskType = "preorder-cleanup"
	TaskSearchIndexRefresh    TaskType = "search-index-refresh"
)

var validTaskTypes = []TaskType{
	TaskPromotionRuleRelink,
	TaskDiscountedPriceRecalc,
	TaskVariantNameRefresh,
	TaskPreorderCleanup,
	TaskSearchIndexRefresh,
}

// String implements fmt.Stringer.
func (t TaskType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaskType.
func (t TaskType) IsValid() bool {
	for _, candidate := range validTaskTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaskType converts raw input into a TaskType.
func ParseTaskType(value string) (TaskType, error) {
	for _, candidate := range validTaskTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task type %q", value)
}

// TaskTypes returns every known task in registration order.
func TaskTypes() []TaskType {
	out := make([]TaskType, len(validTaskTypes))
	copy(out, validTaskTypes)
	return out
}
