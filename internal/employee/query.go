package employee

import (
	"net/url"
	"strconv"
)

// Query is the user-controlled state driving the list fetch.
type Query struct {
	Search       string
	DepartmentID string
	Page         int
	Limit        int
}

// NewQuery returns the initial query: first page, no filters.
func NewQuery(limit int) Query {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return Query{Page: 1, Limit: limit}
}

// Encode renders the query string in a fixed parameter order. All four
// parameters are always present so the server sees "departmentId=" for
// "all departments".
func (q Query) Encode() string {
	return "page=" + strconv.Itoa(q.Page) +
		"&limit=" + strconv.Itoa(q.Limit) +
		"&search=" + url.QueryEscape(q.Search) +
		"&departmentId=" + url.QueryEscape(q.DepartmentID)
}

// TotalPages is ceil(total/limit). Zero rows yield zero pages.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// CanPrev reports whether "Previous" is enabled.
func CanPrev(page int) bool {
	return page > 1
}

// CanNext reports whether "Next" is enabled.
func CanNext(page, totalPages int) bool {
	return page < totalPages
}

// PrevPage steps back one page, never below 1.
func PrevPage(page int) int {
	if page-1 < 1 {
		return 1
	}
	return page - 1
}
