package facet

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/motoshop/catalog/pkg/types"
)

// Counts maps facet field to value to the number of matching products.
type Counts map[string]map[string]uint64

func (c Counts) Get(field, value string) uint64 {
	return c[field][value]
}

// Count computes disjunctive facet counts over the index subset: for every facet
// value, the number of products that would match if the value were selected in
// addition to the current selection of that facet. base is the predicate for
// every non facet dimension (query, toggles, price).
//
// Selections on fields that are not indexed are applied with the product
// values directly so the counts stay consistent with filtering.
func Count(idx *AttributeIndex, state types.FilterState, base func(types.Product) bool) Counts {
	matching := roaring.New()
	for pos, p := range idx.Products {
		if base == nil || base(p) {
			matching.Add(uint32(pos))
		}
	}

	selected := make(map[string]*roaring.Bitmap)
	for _, field := range state.ActiveFacetFields() {
		bm := idx.matchSelection(field, state.Selected(field))
		if bm == nil {
			bm = idx.scanSelection(field, state.Selected(field))
		}
		selected[field] = bm
	}

	ret := make(Counts, len(idx.Facets))
	for _, f := range idx.Facets {
		allowed := matching.Clone()
		for field, bm := range selected {
			if field != f.Field {
				allowed.And(bm)
			}
		}
		values := make(map[string]uint64, len(idx.postings[f.Field]))
		for v, bm := range idx.postings[f.Field] {
			values[v] = allowed.AndCardinality(bm)
		}
		ret[f.Field] = values
	}
	return ret
}

func (idx *AttributeIndex) scanSelection(field string, values []string) *roaring.Bitmap {
	ret := roaring.New()
	for pos, p := range idx.Products {
		for _, v := range p.GetStringsFieldValue(field) {
			if slices.Contains(values, v) {
				ret.Add(uint32(pos))
				break
			}
		}
	}
	return ret
}
