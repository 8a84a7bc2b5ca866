package query

// PageResult is one page of items plus the total number of matching items.
// Results is replaced wholesale on every fetch, never merged.
type PageResult[T any] struct {
	Results []T `json:"results"`
	Count   int `json:"count"`
}

// Pages returns how many pages of size limit the count spans.
func (r PageResult[T]) Pages(limit int) int {
	if limit <= 0 || r.Count <= 0 {
		return 0
	}
	return (r.Count + limit - 1) / limit
}
