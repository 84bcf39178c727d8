package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query is a normalized page/limit pair.
type Query struct {
	Page  int
	Limit int
}

// FromContext reads page/limit query params with defaults and bounds.
func FromContext(c *gin.Context) Query {
	return Normalize(
		atoiDefault(c.Query("page"), DefaultPage),
		atoiDefault(c.Query("limit"), DefaultLimit),
	)
}

// Normalize clamps page and limit into their valid ranges.
func Normalize(page, limit int) Query {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{Page: page, Limit: limit}
}

// Offset returns the row offset for the query.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// TotalPages returns the page count for total rows, never below 1
// when rows exist.
func (q Query) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	pages := int(total) / q.Limit
	if int(total)%q.Limit != 0 {
		pages++
	}
	return pages
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
