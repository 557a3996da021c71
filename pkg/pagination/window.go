package pagination

type PageLink struct {
	Number   int  `json:"number,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Window returns the page links to render: up to WindowSize consecutive pages
// centered on page, plus first/last shortcuts and ellipses for skipped ranges.
func Window(page, pageCount int) []PageLink {
	pageCount = max(pageCount, 1)
	page = ClampPage(page, pageCount)

	start, end := 1, pageCount
	if pageCount > WindowSize {
		half := WindowSize / 2
		start, end = page-half, page+half
		if start < 1 {
			end += 1 - start
			start = 1
		}
		if end > pageCount {
			start -= end - pageCount
			end = pageCount
		}
	}

	ret := make([]PageLink, 0, WindowSize+4)
	if start > 1 {
		ret = append(ret, PageLink{Number: 1})
		if start > 2 {
			ret = append(ret, PageLink{Ellipsis: true})
		}
	}
	for n := start; n <= end; n++ {
		ret = append(ret, PageLink{Number: n, Current: n == page})
	}
	if end < pageCount {
		if end < pageCount-1 {
			ret = append(ret, PageLink{Ellipsis: true})
		}
		ret = append(ret, PageLink{Number: pageCount})
	}
	return ret
}
