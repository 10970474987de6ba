package review

import (
	"github.com/eastouest/real-estate-alerter/internal/domain"
)

// FilterState is the ephemeral, session-scoped predicate over the working set.
// Empty slices and nil bounds mean "no restriction" for that attribute, which
// matches the behavior of an untouched filter control.
type FilterState struct {
	Districts     []string `json:"districts,omitempty"`
	PropertyTypes []string `json:"property_types,omitempty"`
	CreatedDates  []string `json:"created_dates,omitempty"` // YYYY-MM-DD
	MinPrice      *float64 `json:"min_price,omitempty"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
}

// Matches reports whether t passes every active filter attribute.
func (f FilterState) Matches(t domain.Transaction) bool {
	if len(f.Districts) > 0 && !contains(f.Districts, t.District) {
		return false
	}
	if len(f.PropertyTypes) > 0 && !contains(f.PropertyTypes, t.PropertyType) {
		return false
	}
	if len(f.CreatedDates) > 0 && !contains(f.CreatedDates, t.CreatedDate.String()) {
		return false
	}
	if f.MinPrice != nil && t.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && t.Price > *f.MaxPrice {
		return false
	}
	return true
}

// Apply returns the subset of set passing the filter, preserving order.
// It is a pure predicate: set is never mutated, and applying the same filter
// to the same set always yields the same subset.
func (f FilterState) Apply(set []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(set))
	for _, t := range set {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
