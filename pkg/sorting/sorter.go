package sorting

import (
	"cmp"
	"slices"

	"github.com/motoshop/catalog/pkg/types"
)

// Sorter orders products by a numeric score. Scores are descending unless
// the sorter is reversed.
type Sorter struct {
	name       types.SortKey
	fn         func(p types.Product) float64
	isReversed bool
}

func NewSorter(name types.SortKey, fn func(p types.Product) float64, isReversed bool) *Sorter {
	return &Sorter{
		name:       name,
		fn:         fn,
		isReversed: isReversed,
	}
}

func NewFieldSorter(name types.SortKey, field string) *Sorter {
	return NewSorter(name, func(p types.Product) float64 {
		return p.GetNumberFieldValue(field)
	}, false)
}

func (s *Sorter) Name() types.SortKey {
	return s.name
}

// Sort returns a sorted copy. Equal scores keep their input order.
func (s *Sorter) Sort(products []types.Product) []types.Product {
	type scored struct {
		score   float64
		product types.Product
	}
	items := make([]scored, len(products))
	for i, p := range products {
		items[i] = scored{score: s.fn(p), product: p}
	}
	slices.SortStableFunc(items, func(a, b scored) int {
		if s.isReversed {
			return cmp.Compare(a.score, b.score)
		}
		return cmp.Compare(b.score, a.score)
	})
	ret := make([]types.Product, len(items))
	for i, item := range items {
		ret[i] = item.product
	}
	return ret
}
