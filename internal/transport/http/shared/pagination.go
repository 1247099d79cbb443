package shared

import (
	"net/http"
	"strconv"

	"bizdash/internal/transport/http/api"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset, or a 1-based page when offset is
// absent. Bad values fall back to the defaults.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	query := r.URL.Query()
	p := Pagination{Limit: defaultLimit}
	if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if v, err := strconv.Atoi(query.Get("offset")); err == nil && v >= 0 {
		p.Offset = v
	} else if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 1 {
		p.Offset = (page - 1) * p.Limit
	}
	return p
}

func (p Pagination) Meta(total int) api.PageMeta {
	return api.PageMeta{Total: total, Limit: p.Limit, Offset: p.Offset}
}
