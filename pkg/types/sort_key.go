package types

import "strings"

type SortKey string

const (
	SortDefault        SortKey = "default"
	SortPriceAsc       SortKey = "price-asc"
	SortPriceDesc      SortKey = "price-desc"
	SortDiscountDesc   SortKey = "discount-desc"
	SortRatingDesc     SortKey = "rating-desc"
	SortPopularityDesc SortKey = "popularity-desc"
	SortVolumeDesc     SortKey = "volume-desc"
	SortYearDesc       SortKey = "year-desc"
)

// StandardSortKeys are available on every category page.
var StandardSortKeys = []SortKey{
	SortDefault,
	SortPriceAsc,
	SortPriceDesc,
	SortDiscountDesc,
	SortRatingDesc,
	SortPopularityDesc,
}

func ParseSortKey(s string) SortKey {
	return SortKey(strings.ToLower(strings.TrimSpace(s)))
}
