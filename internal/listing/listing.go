// Package listing turns the public scholarship-listing query string into a
// normalized Query and wraps a result page into the Page envelope.
//
// The package is store-agnostic: each repository backend translates a Query
// into its own filter and sort (see repository/mongo and repository/sqlite).
//
// SORT CONTRACT:
// The primary key is applicationFees (sortBy=fee) or createdAt (anything
// else), in the requested direction. The record identifier ascending is always
// appended as the secondary key, so the order is total and a page boundary
// never moves records with equal primary keys between requests.
package listing

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 8
	// DefaultMaxLimit bounds the page size when the caller does not configure one.
	DefaultMaxLimit = 100
)

// SortKey selects the primary sort field.
type SortKey string

const (
	SortByFee  SortKey = "fee"
	SortByDate SortKey = "date"
)

// Order is the direction of the primary sort key.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Document field names of the sort keys, shared by both store backends.
const (
	FieldApplicationFees = "applicationFees"
	FieldCreatedAt       = "createdAt"
)

// Query is a normalized listing request. Zero values of the filter fields
// mean "no filter".
type Query struct {
	Search   string
	Category string // exact match on scholarshipCategory
	Subject  string // exact match on subjectCategory
	Country  string // exact match on universityCountry
	SortBy   SortKey
	Order    Order
	Page     int
	Limit    int
}

// Parse reads the listing parameters from a query string.
//
// Unknown sortBy values fall back to date, any order other than "asc" is
// descending, and a page or limit that is missing, non-numeric or not
// positive falls back to its default. Limit is clamped to maxLimit; a
// non-positive maxLimit means DefaultMaxLimit.
func Parse(values url.Values, maxLimit int) Query {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}

	q := Query{
		Search:   strings.TrimSpace(values.Get("search")),
		Category: strings.TrimSpace(values.Get("category")),
		Subject:  strings.TrimSpace(values.Get("subject")),
		Country:  strings.TrimSpace(values.Get("country")),
		SortBy:   SortByDate,
		Order:    Desc,
		Page:     positiveInt(values.Get("page"), DefaultPage),
		Limit:    positiveInt(values.Get("limit"), DefaultLimit),
	}

	if SortKey(values.Get("sortBy")) == SortByFee {
		q.SortBy = SortByFee
	}
	if Order(values.Get("order")) == Asc {
		q.Order = Asc
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	return q
}

// Offset is the number of matching records skipped before this page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// SortField is the document field name of the primary sort key.
func (q Query) SortField() string {
	if q.SortBy == SortByFee {
		return FieldApplicationFees
	}
	return FieldCreatedAt
}

// Ascending reports whether the primary key sorts ascending.
func (q Query) Ascending() bool {
	return q.Order == Asc
}

// Direction is the primary key direction as 1 (ascending) or -1 (descending).
func (q Query) Direction() int {
	if q.Ascending() {
		return 1
	}
	return -1
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Page is the response envelope of a paginated listing.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
}

// NewPage wraps one page of results. data is never encoded as null.
func NewPage[T any](data []T, q Query, total int64) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:       data,
		Page:       q.Page,
		TotalPages: TotalPages(total, q.Limit),
		Total:      total,
	}
}

// TotalPages is ceil(total/limit). An empty result has zero pages.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
