package filter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/motoshop/catalog/pkg/types"
)

type Kind string

const (
	KindQuery        Kind = "query"
	KindFacet        Kind = "facet"
	KindPrice        Kind = "price"
	KindInStock      Kind = "in-stock"
	KindDiscountOnly Kind = "discount-only"
)

const (
	IdQuery        = "query"
	IdPrice        = "price"
	IdInStock      = "in-stock"
	IdDiscountOnly = "discount-only"
	facetIdPrefix  = "facet:"
)

// ActiveFilter describes one constraining dimension of a FilterState.
type ActiveFilter struct {
	Id     string   `json:"id"`
	Kind   Kind     `json:"kind"`
	Field  string   `json:"field,omitempty"`
	Label  string   `json:"label"`
	Text   string   `json:"text"`
	Values []string `json:"values,omitempty"`
}

func FacetId(field string) string {
	return facetIdPrefix + field
}

// Describe lists the active dimensions of the state: query, facets (in the order of
// facets, then any other selected field by name), price when narrower than bounds,
// then the toggles.
func Describe(state types.FilterState, bounds types.PriceBounds, facets ...types.FacetDefinition) []ActiveFilter {
	ret := make([]ActiveFilter, 0)

	if q := strings.TrimSpace(state.Query); q != "" {
		ret = append(ret, ActiveFilter{
			Id:    IdQuery,
			Kind:  KindQuery,
			Label: "Поиск",
			Text:  fmt.Sprintf("Поиск: «%s»", q),
		})
	}

	active := state.ActiveFacetFields()
	addFacet := func(field, label string) {
		values := state.Selected(field)
		ret = append(ret, ActiveFilter{
			Id:     FacetId(field),
			Kind:   KindFacet,
			Field:  field,
			Label:  label,
			Text:   fmt.Sprintf("%s: %s", label, strings.Join(values, ", ")),
			Values: slices.Clone(values),
		})
	}
	for _, f := range facets {
		if idx := slices.Index(active, f.Field); idx >= 0 {
			addFacet(f.Field, f.Label)
			active = slices.Delete(active, idx, idx+1)
		}
	}
	for _, field := range active {
		addFacet(field, field)
	}

	if state.PriceRange.Normalized() != bounds.Normalized() {
		ret = append(ret, ActiveFilter{
			Id:    IdPrice,
			Kind:  KindPrice,
			Label: "Цена",
			Text:  fmt.Sprintf("Цена: от %s до %s ₽", formatPrice(state.PriceRange.Min), formatPrice(state.PriceRange.Max)),
		})
	}
	if state.Toggles.InStock {
		ret = append(ret, ActiveFilter{Id: IdInStock, Kind: KindInStock, Label: "В наличии", Text: "В наличии"})
	}
	if state.Toggles.DiscountOnly {
		ret = append(ret, ActiveFilter{Id: IdDiscountOnly, Kind: KindDiscountOnly, Label: "Со скидкой", Text: "Со скидкой"})
	}
	return ret
}

// Clear restores the default of exactly one dimension. Unknown ids leave the state as is.
func Clear(state types.FilterState, id string, bounds types.PriceBounds) types.FilterState {
	switch id {
	case IdQuery:
		return state.WithQuery("")
	case IdPrice:
		return state.WithPriceRange(bounds.Min, bounds.Max)
	case IdInStock:
		return state.WithInStock(false)
	case IdDiscountOnly:
		return state.WithDiscountOnly(false)
	}
	if field, ok := strings.CutPrefix(id, facetIdPrefix); ok {
		return state.ClearFacet(field)
	}
	return state
}

// ClearAll returns the default state for the bounds. Callers reset the page number.
func ClearAll(_ types.FilterState, bounds types.PriceBounds) types.FilterState {
	return types.NewFilterState(bounds)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
