package types

import (
	"maps"
	"slices"
	"strings"
)

type Toggles struct {
	InStock      bool `json:"inStock"`
	DiscountOnly bool `json:"discountOnly"`
}

// FilterState is the full predicate configuration of a category page.
// It is a value: every transition returns a new state and leaves the receiver untouched.
// An empty (or missing) selection for a facet means no constraint on that facet.
type FilterState struct {
	Query      string              `json:"query"`
	Toggles    Toggles             `json:"toggles"`
	Selections map[string][]string `json:"facetSelections"`
	PriceRange PriceBounds         `json:"priceRange"`
}

// NewFilterState returns the default state for a page whose observed price bounds are given.
func NewFilterState(bounds PriceBounds) FilterState {
	return FilterState{
		Selections: map[string][]string{},
		PriceRange: bounds.Normalized(),
	}
}

func (s FilterState) clone() FilterState {
	ret := s
	ret.Selections = make(map[string][]string, len(s.Selections))
	for field, values := range s.Selections {
		if len(values) > 0 {
			ret.Selections[field] = slices.Clone(values)
		}
	}
	return ret
}

func (s FilterState) WithQuery(query string) FilterState {
	ret := s.clone()
	ret.Query = query
	return ret
}

// NormalizedQuery is the trimmed, case folded query used for matching.
func (s FilterState) NormalizedQuery() string {
	return strings.ToLower(strings.TrimSpace(s.Query))
}

func (s FilterState) WithInStock(on bool) FilterState {
	ret := s.clone()
	ret.Toggles.InStock = on
	return ret
}

func (s FilterState) WithDiscountOnly(on bool) FilterState {
	ret := s.clone()
	ret.Toggles.DiscountOnly = on
	return ret
}

// ToggleFacetValue adds the value to the facet selection, or removes it if already selected.
func (s FilterState) ToggleFacetValue(field, value string) FilterState {
	value = strings.TrimSpace(value)
	if field == "" || value == "" {
		return s.clone()
	}
	ret := s.clone()
	current := ret.Selections[field]
	if idx := slices.Index(current, value); idx >= 0 {
		current = slices.Delete(current, idx, idx+1)
	} else {
		current = append(current, value)
		slices.Sort(current)
	}
	if len(current) == 0 {
		delete(ret.Selections, field)
	} else {
		ret.Selections[field] = current
	}
	return ret
}

// WithFacetValues replaces the selection of one facet. No values clears it.
func (s FilterState) WithFacetValues(field string, values ...string) FilterState {
	ret := s.clone()
	if field == "" {
		return ret
	}
	clean := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(clean, v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		delete(ret.Selections, field)
		return ret
	}
	slices.Sort(clean)
	ret.Selections[field] = clean
	return ret
}

func (s FilterState) ClearFacet(field string) FilterState {
	return s.WithFacetValues(field)
}

// WithPriceRange sets the price sub range, swapping reversed bounds. When bounds are
// given the range is clamped into the first of them.
func (s FilterState) WithPriceRange(min, max float64, bounds ...PriceBounds) FilterState {
	ret := s.clone()
	r := PriceBounds{Min: min, Max: max}.Normalized()
	if len(bounds) > 0 {
		r = r.Clamp(bounds[0].Normalized())
	}
	ret.PriceRange = r
	return ret
}

func (s FilterState) Selected(field string) []string {
	return s.Selections[field]
}

func (s FilterState) IsSelected(field, value string) bool {
	return slices.Contains(s.Selections[field], value)
}

// ActiveFacetFields returns the fields with a non-empty selection, sorted.
func (s FilterState) ActiveFacetFields() []string {
	ret := make([]string, 0, len(s.Selections))
	for field, values := range s.Selections {
		if len(values) > 0 {
			ret = append(ret, field)
		}
	}
	slices.Sort(ret)
	return ret
}

func (s FilterState) Equal(other FilterState) bool {
	if s.Query != other.Query || s.Toggles != other.Toggles || s.PriceRange != other.PriceRange {
		return false
	}
	return maps.EqualFunc(s.clone().Selections, other.clone().Selections, slices.Equal[[]string])
}

// IsDefault reports whether the state imposes no constraint beyond the given bounds.
func (s FilterState) IsDefault(bounds PriceBounds) bool {
	return s.Equal(NewFilterState(bounds))
}
