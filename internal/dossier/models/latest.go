package models

import (
	"strings"
	"time"
)

// Versioned identifies one row of a history store: when it was included and
// its natural position in the store.
type Versioned struct {
	IncludedAt string
	RowID      int64
}

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
}

// ParseDate reads the date formats found in the stores. ok is false for empty
// or unrecognized values.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Newer reports whether a is more recent than b. Parsed dates compare by
// time and beat unparseable ones; two unparseable dates compare as text.
// Equal dates fall back to the larger RowID.
func Newer(a, b Versioned) bool {
	ta, okA := ParseDate(a.IncludedAt)
	tb, okB := ParseDate(b.IncludedAt)
	switch {
	case okA && okB && !ta.Equal(tb):
		return ta.After(tb)
	case okA != okB:
		return okA
	case !okA && !okB && a.IncludedAt != b.IncludedAt:
		return a.IncludedAt > b.IncludedAt
	}
	return a.RowID > b.RowID
}

// Latest picks the most recent row. The result does not depend on the order
// of rows.
func Latest[T any](rows []T, version func(T) Versioned) (T, bool) {
	var best T
	if len(rows) == 0 {
		return best, false
	}
	best = rows[0]
	bestV := version(best)
	for _, row := range rows[1:] {
		if v := version(row); Newer(v, bestV) {
			best, bestV = row, v
		}
	}
	return best, true
}
