package promotion

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CataloguePredicate describes which catalog rows a promotion rule
// applies to. A leaf node matches the union of its id sets: listed
// variants, variants of listed products, variants of products in
// listed categories or collections. Composite nodes combine child
// predicates: AND intersects their matches, OR unions them. A node is
// either composite or a leaf, never both.
type CataloguePredicate struct {
	And []CataloguePredicate `json:"AND,omitempty"`
	Or  []CataloguePredicate `json:"OR,omitempty"`

	ProductIDs    []uuid.UUID `json:"productIds,omitempty"`
	CategoryIDs   []uuid.UUID `json:"categoryIds,omitempty"`
	CollectionIDs []uuid.UUID `json:"collectionIds,omitempty"`
	VariantIDs    []uuid.UUID `json:"variantIds,omitempty"`
}

// ParsePredicate decodes the stored JSON predicate and rejects
// ambiguous composition. A nil or empty document yields an empty
// predicate, not an error.
func ParsePredicate(raw json.RawMessage) (CataloguePredicate, error) {
	var predicate CataloguePredicate
	if len(raw) == 0 {
		return predicate, nil
	}
	if err := json.Unmarshal(raw, &predicate); err != nil {
		return CataloguePredicate{}, fmt.Errorf("decoding catalogue predicate: %w", err)
	}
	if err := predicate.Validate(); err != nil {
		return CataloguePredicate{}, err
	}
	return predicate, nil
}

// Validate rejects nodes that mix AND with OR or combine an operator
// with direct id filters, recursively.
func (p CataloguePredicate) Validate() error {
	if len(p.And) > 0 && len(p.Or) > 0 {
		return fmt.Errorf("catalogue predicate mixes AND and OR in one node")
	}
	if p.isComposite() && p.hasIDs() {
		return fmt.Errorf("catalogue predicate operator node carries id filters")
	}
	for _, child := range p.And {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	for _, child := range p.Or {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty reports whether the predicate can never match anything.
func (p CataloguePredicate) IsEmpty() bool {
	return !p.isComposite() && !p.hasIDs()
}

func (p CataloguePredicate) isComposite() bool {
	return len(p.And) > 0 || len(p.Or) > 0
}

func (p CataloguePredicate) hasIDs() bool {
	return len(p.ProductIDs) > 0 || len(p.CategoryIDs) > 0 ||
		len(p.CollectionIDs) > 0 || len(p.VariantIDs) > 0
}

// MarshalPredicate encodes a predicate for storage.
func MarshalPredicate(p CataloguePredicate) (json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding catalogue predicate: %w", err)
	}
	return raw, nil
}
