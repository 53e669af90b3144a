package models

// Pagination contains pagination metadata returned in list responses. The
// total always reflects the same filter predicate as the page slice.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
