package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vishvavidya/traininghub/core"
)

var orderingParam = "ordering"

// Ordering binds `?ordering=field,-other` where a leading "-" sorts descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	MessageResponse struct {
		Message string `json:"message"`
	}

	ErrorsResponse struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}

	IntakeErrorResponse struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
		Ignored []string `json:"ignored"`
	}

	CountResponse struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
)
