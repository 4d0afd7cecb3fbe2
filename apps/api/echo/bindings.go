package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/dhamira/core"
)

var (
	orderingParam = "ordering"
	pageParam     = "page"
	limitParam    = "limit"

	defaultPageLimit = 20
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type Pagination struct {
	Page  int
	Limit int
}

// Bind reads page/limit query params; missing params get defaults,
// non-numeric or sub-1 values are rejected.
func (p *Pagination) Bind(ctx echo.Context) error {
	p.Page = 1
	p.Limit = defaultPageLimit

	if raw := ctx.QueryParam(pageParam); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return core.NewValidationError(nil, core.FieldError{Field: pageParam, Error: "must be a positive integer"})
		}
		p.Page = page
	}
	if raw := ctx.QueryParam(limitParam); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return core.NewValidationError(nil, core.FieldError{Field: limitParam, Error: "must be a positive integer"})
		}
		p.Limit = limit
	}
	return nil
}
