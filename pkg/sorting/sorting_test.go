package sorting

import (
	"testing"

	"github.com/motoshop/catalog/pkg/types"
	"github.com/stretchr/testify/assert"
)

func ids(products []types.Product) []string {
	ret := make([]string, len(products))
	for i, p := range products {
		ret[i] = p.GetId()
	}
	return ret
}

func TestSortDiscountDescWithMissingValues(t *testing.T) {
	products := []types.Product{
		{"id": "a", "discount": 0},
		{"id": "b", "discount": 50},
		{"id": "c", "discount": nil},
		{"id": "d", "discount": 20},
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(Sort(products, types.SortDiscountDesc)))
}

func TestSortPrice(t *testing.T) {
	products := []types.Product{
		{"id": "a", "price": 300},
		{"id": "b", "price": "100"},
		{"id": "c"},
		{"id": "d", "price": 200},
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, ids(Sort(products, types.SortPriceAsc)))
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids(Sort(products, types.SortPriceDesc)))
}

func TestSortIsStable(t *testing.T) {
	products := []types.Product{
		{"id": "a", "rating": 4},
		{"id": "b", "rating": 5},
		{"id": "c", "rating": 4},
		{"id": "d", "rating": 5},
		{"id": "e", "rating": 4},
	}
	first := Sort(products, types.SortRatingDesc)
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, ids(first))
	assert.Equal(t, ids(first), ids(Sort(products, types.SortRatingDesc)))

	asc := Sort(products, types.SortPriceAsc)
	assert.Equal(t, ids(products), ids(asc))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	products := []types.Product{
		{"id": "a", "popularity": 1},
		{"id": "b", "countInStock": 9},
	}
	sorted := Sort(products, types.SortPopularityDesc)
	assert.Equal(t, []string{"b", "a"}, ids(sorted))
	assert.Equal(t, []string{"a", "b"}, ids(products))

	def := Sort(products, types.SortDefault)
	def[0] = types.Product{"id": "x"}
	assert.Equal(t, "a", products[0].GetId())
}

func TestInvalidKeyFallsBackToDefault(t *testing.T) {
	products := []types.Product{
		{"id": "a", "year": 2010, "price": 3},
		{"id": "b", "year": 2020, "price": 1},
	}
	helmets := NewSorting()

	assert.Equal(t, types.SortDefault, helmets.Resolve(types.SortYearDesc))
	assert.Equal(t, types.SortPriceAsc, helmets.Resolve(types.SortPriceAsc))
	assert.Equal(t, []string{"a", "b"}, ids(helmets.Sort(products, types.SortYearDesc)))
	assert.Equal(t, []string{"a", "b"}, ids(helmets.Sort(products, "bogus")))

	bikes := NewSorting(append(types.StandardSortKeys, types.SortYearDesc)...)
	assert.Equal(t, []string{"b", "a"}, ids(bikes.Sort(products, types.SortYearDesc)))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, types.StandardSortKeys, NewSorting().Keys())
	assert.Equal(t, []types.SortKey{types.SortDefault, types.SortVolumeDesc}, NewSorting(types.SortVolumeDesc, "bogus").Keys())

	s := NewSorting(types.SortPriceAsc)
	s.AddSorter(NewFieldSorter("weight-desc", "weight"))
	assert.Equal(t, []types.SortKey{types.SortDefault, types.SortPriceAsc, "weight-desc"}, s.Keys())
}
