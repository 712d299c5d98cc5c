// Package readmodel holds the query side shared by every bounded context:
// the not-found sentinel, list filters, and the concrete store
// implementations under memory/ and postgres/.
package readmodel

import "errors"

// ErrNotFound is returned by every store when the requested record does not
// exist.
var ErrNotFound = errors.New("record not found")

// Sort orders accepted by GameFilter.
const (
	SortByName      = "name"
	SortByPriceAsc  = "price_asc"
	SortByPriceDesc = "price_desc"
	SortByRating    = "rating"
	SortByCreatedAt = "created_at"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// GameFilter narrows and pages a catalog listing. Zero value lists every
// active game, newest first.
type GameFilter struct {
	Name          string
	Status        string
	IncludeHidden bool
	SortBy        string
	Limit         int
	Offset        int
}

// Normalize clamps paging and defaults the sort order.
func (f GameFilter) Normalize() GameFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.SortBy {
	case SortByName, SortByPriceAsc, SortByPriceDesc, SortByRating, SortByCreatedAt:
	default:
		f.SortBy = SortByCreatedAt
	}
	return f
}
