package core

import (
	"strings"
)

// Actor identifies who triggered a mutation. It is stamped on every ledger and audit row.
type Actor struct {
	UserID string `json:"userid"`
	Role   string `json:"role"`
}

func (a Actor) IsZero() bool { return a.UserID == "" && a.Role == "" }

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderBy renders orderings as an ORDER BY list, keeping only the fields mapped in allowed ({param: column}).
func OrderBy(orderings []DBOrdering, allowed map[string]string, fallback string) string {
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		parts = append(parts, DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}
