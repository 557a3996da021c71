package sorting

import (
	"slices"

	"github.com/motoshop/catalog/pkg/types"
)

const (
	FieldEngineVolume = "engineVolume"
	FieldYear         = "year"
)

var builtin = map[types.SortKey]*Sorter{
	types.SortPriceAsc:       NewSorter(types.SortPriceAsc, types.Product.GetPrice, true),
	types.SortPriceDesc:      NewSorter(types.SortPriceDesc, types.Product.GetPrice, false),
	types.SortDiscountDesc:   NewSorter(types.SortDiscountDesc, types.Product.GetDiscount, false),
	types.SortRatingDesc:     NewSorter(types.SortRatingDesc, types.Product.GetRating, false),
	types.SortPopularityDesc: NewSorter(types.SortPopularityDesc, types.Product.GetPopularity, false),
	types.SortVolumeDesc:     NewFieldSorter(types.SortVolumeDesc, FieldEngineVolume),
	types.SortYearDesc:       NewFieldSorter(types.SortYearDesc, FieldYear),
}

// Sorting holds the sort keys valid for one page.
type Sorting struct {
	keys    []types.SortKey
	sorters map[types.SortKey]*Sorter
}

// NewSorting registers the given keys, or the standard keys when none are given.
// Keys without a known sorter are ignored; default is always valid.
func NewSorting(keys ...types.SortKey) *Sorting {
	if len(keys) == 0 {
		keys = types.StandardSortKeys
	}
	s := &Sorting{
		keys:    []types.SortKey{types.SortDefault},
		sorters: make(map[types.SortKey]*Sorter, len(keys)),
	}
	for _, key := range keys {
		s.AddSorter(builtin[key])
	}
	return s
}

func (s *Sorting) AddSorter(sorter *Sorter) {
	if sorter == nil || sorter.Name() == types.SortDefault {
		return
	}
	if _, ok := s.sorters[sorter.Name()]; !ok {
		s.keys = append(s.keys, sorter.Name())
	}
	s.sorters[sorter.Name()] = sorter
}

// Keys returns the valid keys, default first.
func (s *Sorting) Keys() []types.SortKey {
	return slices.Clone(s.keys)
}

// Resolve maps invalid keys to default.
func (s *Sorting) Resolve(key types.SortKey) types.SortKey {
	if _, ok := s.sorters[key]; ok {
		return key
	}
	return types.SortDefault
}

// Sort returns a new ordered slice and never mutates the input. The default key and
// any key not valid for this page keep the input order.
func (s *Sorting) Sort(products []types.Product, key types.SortKey) []types.Product {
	sorter, ok := s.sorters[key]
	if !ok {
		return slices.Clone(products)
	}
	return sorter.Sort(products)
}

var all = NewSorting(types.SortPriceAsc, types.SortPriceDesc, types.SortDiscountDesc,
	types.SortRatingDesc, types.SortPopularityDesc, types.SortVolumeDesc, types.SortYearDesc)

// Sort orders products with any known key.
func Sort(products []types.Product, key types.SortKey) []types.Product {
	return all.Sort(products, key)
}
