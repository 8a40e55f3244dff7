package testplan

// DefaultPageSize is the number of test cases shown per page.
const DefaultPageSize = 4

// PageCount returns the number of pages needed for n items. There is always
// at least one page.
func PageCount(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// PageBounds returns the half-open index range [start, end) of page (1-based)
// over n items. Out-of-range pages yield an empty range.
func PageBounds(page, n, pageSize int) (start, end int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		return 0, 0
	}
	start = (page - 1) * pageSize
	if start >= n {
		return n, n
	}
	end = min(start+pageSize, n)
	return start, end
}

// ClampPage returns page limited to [1, PageCount(n, pageSize)].
func ClampPage(page, n, pageSize int) int {
	return max(1, min(page, PageCount(n, pageSize)))
}
