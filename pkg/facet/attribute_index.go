package facet

import (
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/motoshop/catalog/pkg/types"
)

const (
	DefaultMaxPrice = 100000
	// prices below this max get a step of 100, above it 1000
	stepThreshold = 50000
)

type Options struct {
	// Step overrides the automatic rounding step for the price bounds when > 0.
	Step       float64
	DefaultMax float64
}

// AttributeIndex is built once per product collection (and category) and holds
// the facet domains, the rounded price bounds and a posting list per facet value.
// Positions in the posting lists refer to Products.
type AttributeIndex struct {
	Category    string
	Facets      []types.FacetDefinition
	Products    []types.Product
	Domains     map[string][]string
	PriceBounds types.PriceBounds
	postings    map[string]map[string]*roaring.Bitmap
}

// PriceStep picks the slider rounding step from the observed maximum price.
func PriceStep(max float64) float64 {
	if max < stepThreshold {
		return 100
	}
	return 1000
}

// RoundBounds floors min and ceils max to the step.
func RoundBounds(min, max, step float64) types.PriceBounds {
	if step <= 0 {
		step = PriceStep(max)
	}
	return types.PriceBounds{
		Min: math.Floor(min/step) * step,
		Max: math.Ceil(max/step) * step,
	}.Normalized()
}

// CategorySubset returns the products whose category equals category, in input order.
// An empty category selects everything.
func CategorySubset(products []types.Product, category string) []types.Product {
	if category == "" {
		return products
	}
	ret := make([]types.Product, 0, len(products))
	for _, p := range products {
		if p.GetCategory() == category {
			ret = append(ret, p)
		}
	}
	return ret
}

func Build(products []types.Product, facets []types.FacetDefinition, category string, opts Options) *AttributeIndex {
	subset := CategorySubset(products, category)
	idx := &AttributeIndex{
		Category: category,
		Facets:   facets,
		Products: subset,
		Domains:  make(map[string][]string, len(facets)),
		postings: make(map[string]map[string]*roaring.Bitmap, len(facets)),
	}
	for _, f := range facets {
		idx.postings[f.Field] = map[string]*roaring.Bitmap{}
	}

	minPrice, maxPrice := math.Inf(1), math.Inf(-1)
	for pos, p := range subset {
		price := p.GetPrice()
		minPrice = math.Min(minPrice, price)
		maxPrice = math.Max(maxPrice, price)

		for field, values := range idx.postings {
			for _, v := range p.GetStringsFieldValue(field) {
				bm, ok := values[v]
				if !ok {
					bm = roaring.New()
					values[v] = bm
				}
				bm.Add(uint32(pos))
			}
		}
	}

	for field, values := range idx.postings {
		domain := make([]string, 0, len(values))
		for v := range values {
			domain = append(domain, v)
		}
		slices.Sort(domain)
		idx.Domains[field] = domain
	}

	if len(subset) == 0 {
		defaultMax := opts.DefaultMax
		if defaultMax <= 0 {
			defaultMax = DefaultMaxPrice
		}
		idx.PriceBounds = types.PriceBounds{Min: 0, Max: defaultMax}
	} else {
		idx.PriceBounds = RoundBounds(minPrice, maxPrice, opts.Step)
	}
	return idx
}

func (idx *AttributeIndex) Domain(field string) []string {
	return idx.Domains[field]
}

func (idx *AttributeIndex) Len() int {
	return len(idx.Products)
}

// all returns a bitmap with every position of the subset.
func (idx *AttributeIndex) all() *roaring.Bitmap {
	bm := roaring.New()
	if len(idx.Products) > 0 {
		bm.AddRange(0, uint64(len(idx.Products)))
	}
	return bm
}

// matchSelection returns the positions having any of the values for the field.
// A field that is not indexed yields nil.
func (idx *AttributeIndex) matchSelection(field string, values []string) *roaring.Bitmap {
	postings, ok := idx.postings[field]
	if !ok {
		return nil
	}
	ret := roaring.New()
	for _, v := range values {
		if bm, ok := postings[v]; ok {
			ret.Or(bm)
		}
	}
	return ret
}
