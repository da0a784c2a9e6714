package pagination

// DefaultLimit is the standard page size when a limit is not provided.
const DefaultLimit = 25

// MaxLimit caps how many rows any page query can request.
const MaxLimit = 100

// Params holds page/limit inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps page and limit into their allowed ranges.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Meta is the pagination block attached to every list response.
type Meta struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewMeta derives the pagination block from the normalized params and a total count.
func NewMeta(params Params, totalItems int64) Meta {
	n := params.Normalize()
	totalPages := int((totalItems + int64(n.Limit) - 1) / int64(n.Limit))
	if totalPages < 1 {
		totalPages = 1
	}
	return Meta{
		CurrentPage: n.Page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasNextPage: n.Page < totalPages,
		HasPrevPage: n.Page > 1,
	}
}
