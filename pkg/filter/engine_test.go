package filter

import (
	"fmt"
	"testing"

	"github.com/motoshop/catalog/pkg/facet"
	"github.com/motoshop/catalog/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helmetCategory = "Мотошлемы"

func ids(products []types.Product) []string {
	ret := make([]string, len(products))
	for i, p := range products {
		ret[i] = p.GetId()
	}
	return ret
}

func catalog() []types.Product {
	return []types.Product{
		{"id": "1", "category": helmetCategory, "name": "AGV K1", "brand": "AGV", "helmetType": "Интеграл", "price": 15990, "inStock": true, "discount": 10},
		{"id": "2", "category": helmetCategory, "name": "Dainese Jet", "brand": "Dainese", "helmetType": "Открытый", "price": 22000, "inStock": false},
		{"id": "3", "category": helmetCategory, "title": "Shoei GT-Air", "brand": "Shoei", "helmetType": "Интеграл", "price": "41000", "inStock": true, "discount": "0"},
		{"id": "4", "category": helmetCategory, "name": "AGV Pista", "brand": "AGV", "description": "Гоночный шлем", "price": 89000, "inStock": true, "size": []any{"M", "L"}},
		{"id": "5", "category": "Экипировка", "name": "AGV перчатки", "brand": "AGV", "price": 3000, "inStock": true},
		{"id": "6", "category": helmetCategory, "name": "Noname", "price": nil, "discount": 30},
	}
}

func fullState(products []types.Product, category string) types.FilterState {
	idx := facet.Build(products, nil, category, facet.Options{})
	return types.NewFilterState(idx.PriceBounds)
}

func TestApplyCategoryGate(t *testing.T) {
	e := NewEngine("helmetType")
	products := catalog()

	assert.Equal(t, []string{"1", "2", "3", "4", "6"}, ids(e.Apply(products, helmetCategory, fullState(products, helmetCategory))))
	assert.Len(t, e.Apply(products, "", fullState(products, "")), 6)
	assert.Empty(t, e.Apply(products, "Запчасти", fullState(products, "")))
}

func TestApplyQuery(t *testing.T) {
	e := NewEngine("helmetType")
	products := catalog()
	state := fullState(products, helmetCategory)

	cases := map[string][]string{
		"  agv ":   {"1", "4"},
		"shoei gt": {"3"},
		"гоночный": {"4"},
		"интеграл": {"1", "3"},
		"нет такого": {},
	}
	for q, want := range cases {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, want, ids(e.Apply(products, helmetCategory, state.WithQuery(q))))
		})
	}

	// without a type field the helmet type is not searched
	assert.Empty(t, (&Engine{}).Apply(products, helmetCategory, state.WithQuery("интеграл")))
}

func TestApplyToggles(t *testing.T) {
	e := NewEngine("")
	products := catalog()
	state := fullState(products, helmetCategory)

	assert.Equal(t, []string{"1", "3", "4"}, ids(e.Apply(products, helmetCategory, state.WithInStock(true))))
	assert.Equal(t, []string{"1", "6"}, ids(e.Apply(products, helmetCategory, state.WithDiscountOnly(true))))
	assert.Equal(t, []string{"1"}, ids(e.Apply(products, helmetCategory, state.WithDiscountOnly(true).WithInStock(true))))
}

func TestApplyPriceRange(t *testing.T) {
	e := NewEngine("")
	products := catalog()
	state := fullState(products, helmetCategory)

	assert.Equal(t, []string{"1", "2"}, ids(e.Apply(products, helmetCategory, state.WithPriceRange(10000, 30000))))
	// a missing price is compared as 0
	assert.Equal(t, []string{"6"}, ids(e.Apply(products, helmetCategory, state.WithPriceRange(0, 100))))
}

func TestApplyFacets(t *testing.T) {
	e := NewEngine("")
	products := catalog()
	state := fullState(products, helmetCategory)

	agv := state.ToggleFacetValue("brand", "AGV")
	assert.Equal(t, []string{"1", "4"}, ids(e.Apply(products, helmetCategory, agv)))

	assert.Equal(t, []string{"4"}, ids(e.Apply(products, helmetCategory, agv.ToggleFacetValue("size", "L"))))
	assert.Empty(t, e.Apply(products, helmetCategory, agv.ToggleFacetValue("size", "XS")))
}

func TestApplyInStockToggle(t *testing.T) {
	products := make([]types.Product, 25)
	for i := range products {
		products[i] = types.Product{
			"id":       fmt.Sprintf("h%d", i),
			"category": helmetCategory,
			"price":    1000 + i*500,
			"inStock":  i >= 10,
		}
	}
	state := fullState(products, helmetCategory).WithInStock(true)
	assert.Len(t, NewEngine("").Apply(products, helmetCategory, state), 15)
}

func TestApplyFacetOrWithinField(t *testing.T) {
	products := []types.Product{
		{"id": "1", "brand": "AGV"},
		{"id": "2", "brand": "Dainese"},
		{"id": "3", "brand": "Shoei"},
		{"id": "4", "brand": "AGV"},
	}
	state := fullState(products, "").WithFacetValues("brand", "AGV", "Shoei")
	assert.Equal(t, []string{"1", "3", "4"}, ids(NewEngine("").Apply(products, "", state)))
}

func TestApplyIsIdempotent(t *testing.T) {
	e := NewEngine("helmetType")
	products := catalog()
	states := []types.FilterState{
		fullState(products, helmetCategory),
		fullState(products, helmetCategory).WithQuery("agv").WithInStock(true),
		fullState(products, helmetCategory).ToggleFacetValue("brand", "AGV").WithPriceRange(0, 50000),
	}
	for _, s := range states {
		once := e.Apply(products, helmetCategory, s)
		assert.Equal(t, ids(once), ids(e.Apply(once, helmetCategory, s)))
	}
}

func TestEmptySelectionIsNoConstraint(t *testing.T) {
	e := NewEngine("")
	products := catalog()
	state := fullState(products, helmetCategory)

	withEmpty := state
	withEmpty.Selections = map[string][]string{"brand": {}}
	assert.Equal(t, ids(e.Apply(products, helmetCategory, state)), ids(e.Apply(products, helmetCategory, withEmpty)))
}

func TestApplyPreservesOrderAndInput(t *testing.T) {
	e := NewEngine("")
	products := catalog()
	before := ids(products)

	got := e.Apply(products, "", fullState(products, "").WithInStock(true))
	require.Equal(t, []string{"1", "3", "4", "5"}, ids(got))
	assert.Equal(t, before, ids(products))

	for _, p := range products {
		assert.Equal(t, e.Match(p, "", fullState(products, "").WithInStock(true)), p.HasStock())
	}
}
