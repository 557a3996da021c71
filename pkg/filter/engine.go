package filter

import (
	"strings"

	"github.com/motoshop/catalog/pkg/types"
)

// Engine applies a FilterState to a product collection.
// The zero value searches name, title, description and brand.
type Engine struct {
	// TypeField is the primary type field of the page, e.g. "helmetType".
	TypeField string
	// SearchFields overrides the default free text fields.
	SearchFields []string
}

var defaultSearchFields = []string{
	types.FieldName,
	types.FieldTitle,
	types.FieldDescription,
	types.FieldBrand,
}

func NewEngine(typeField string) *Engine {
	return &Engine{TypeField: typeField}
}

func (e *Engine) searchFields() []string {
	fields := defaultSearchFields
	if len(e.SearchFields) > 0 {
		fields = e.SearchFields
	}
	if e.TypeField == "" {
		return fields
	}
	ret := make([]string, 0, len(fields)+1)
	ret = append(ret, fields...)
	return append(ret, e.TypeField)
}

// Apply returns the products matching every predicate, in input order.
// An empty category disables the category gate.
func (e *Engine) Apply(products []types.Product, category string, state types.FilterState) []types.Product {
	query := state.NormalizedQuery()
	fields := e.searchFields()
	ret := make([]types.Product, 0, len(products))
	for _, p := range products {
		if e.match(p, category, state, query, fields) {
			ret = append(ret, p)
		}
	}
	return ret
}

func (e *Engine) Match(p types.Product, category string, state types.FilterState) bool {
	return e.match(p, category, state, state.NormalizedQuery(), e.searchFields())
}

// BaseMatcher returns the predicate for the query, toggles and price range only.
// Facet selections and the category gate are left out.
func (e *Engine) BaseMatcher(state types.FilterState) func(types.Product) bool {
	query := state.NormalizedQuery()
	fields := e.searchFields()
	return func(p types.Product) bool {
		return matchBase(p, state, query, fields)
	}
}

func (e *Engine) match(p types.Product, category string, state types.FilterState, query string, fields []string) bool {
	if category != "" && p.GetCategory() != category {
		return false
	}
	if !matchBase(p, state, query, fields) {
		return false
	}
	for field, selected := range state.Selections {
		if len(selected) == 0 {
			continue
		}
		if !matchFacet(p, field, selected) {
			return false
		}
	}
	return true
}

func matchBase(p types.Product, state types.FilterState, query string, fields []string) bool {
	if query != "" && !matchQuery(p, query, fields) {
		return false
	}
	if state.Toggles.InStock && !p.HasStock() {
		return false
	}
	if state.Toggles.DiscountOnly && p.GetDiscount() <= 0 {
		return false
	}
	return state.PriceRange.Contains(p.GetPrice())
}

func matchQuery(p types.Product, query string, fields []string) bool {
	for _, field := range fields {
		if v, ok := p.GetStringFieldValue(field); ok && strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

// matchFacet is true when any value of the product field is selected.
func matchFacet(p types.Product, field string, selected []string) bool {
	for _, v := range p.GetStringsFieldValue(field) {
		for _, s := range selected {
			if s == v {
				return true
			}
		}
	}
	return false
}
