// Package shard routes a key to the store instance holding its range.
//
// Ranges are inclusive, compared lexicographically over fixed-width decimal
// keys, and validated at construction to tile the whole key space with no
// gaps or overlaps. The router is immutable afterwards and safe for
// concurrent use without locking.
package shard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	dErrors "dossier/pkg/domain-errors"
)

// KeyWidth is the width of a routable key; CPF digits.
const KeyWidth = 11

const (
	minKey = "00000000000"
	maxKey = "99999999999"
)

// Range maps [Lower, Upper] to a store instance.
type Range struct {
	Lower    string
	Upper    string
	Instance string
}

func (r Range) contains(key string) bool {
	return r.Lower <= key && key <= r.Upper
}

// DefaultRanges splits the key space into the five CPF bands, served by
// instances named base_0 … base_4.
func DefaultRanges(base string) []Range {
	bounds := [][2]string{
		{"00000000000", "19999999999"},
		{"20000000000", "39999999999"},
		{"40000000000", "59999999999"},
		{"60000000000", "79999999999"},
		{"80000000000", "99999999999"},
	}
	out := make([]Range, len(bounds))
	for i, b := range bounds {
		out[i] = Range{Lower: b[0], Upper: b[1], Instance: fmt.Sprintf("%s_%d", base, i)}
	}
	return out
}

// Router holds the validated range table of every sharded base store.
type Router struct {
	tables map[string][]Range
}

// New validates tables and builds a router. An empty or nil map yields a
// router that sends every base to itself.
func New(tables map[string][]Range) (*Router, error) {
	validated := make(map[string][]Range, len(tables))
	for base, ranges := range tables {
		sorted, err := validate(ranges)
		if err != nil {
			return nil, fmt.Errorf("shard table %s: %w", base, err)
		}
		validated[base] = sorted
	}
	return &Router{tables: validated}, nil
}

// Route returns the instance serving key within base. Bases without a range
// table route to themselves.
func (r *Router) Route(base, key string) (string, error) {
	ranges, ok := r.tables[base]
	if !ok {
		return base, nil
	}
	for _, rg := range ranges {
		if rg.contains(key) {
			return rg.Instance, nil
		}
	}
	return "", dErrors.New(dErrors.CodeRouting, fmt.Sprintf("no shard of %s covers key", base))
}

// Sharded reports whether base has a range table.
func (r *Router) Sharded(base string) bool {
	_, ok := r.tables[base]
	return ok
}

// Instances lists every instance name across all tables, sorted.
func (r *Router) Instances() []string {
	seen := make(map[string]struct{})
	for _, ranges := range r.tables {
		for _, rg := range ranges {
			seen[rg.Instance] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func validate(ranges []Range) ([]Range, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("no ranges")
	}
	sorted := append([]Range(nil), ranges...)
	for _, rg := range sorted {
		if !isKey(rg.Lower) || !isKey(rg.Upper) {
			return nil, fmt.Errorf("range %s-%s: bounds must be %d digits", rg.Lower, rg.Upper, KeyWidth)
		}
		if rg.Lower > rg.Upper {
			return nil, fmt.Errorf("range %s-%s: lower above upper", rg.Lower, rg.Upper)
		}
		if rg.Instance == "" {
			return nil, fmt.Errorf("range %s-%s: instance is required", rg.Lower, rg.Upper)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lower < sorted[j].Lower })

	if sorted[0].Lower != minKey {
		return nil, fmt.Errorf("gap before %s", sorted[0].Lower)
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Lower <= prev.Upper {
			return nil, fmt.Errorf("range %s-%s overlaps %s-%s", cur.Lower, cur.Upper, prev.Lower, prev.Upper)
		}
		if next(prev.Upper) != cur.Lower {
			return nil, fmt.Errorf("gap between %s and %s", prev.Upper, cur.Lower)
		}
	}
	if last := sorted[len(sorted)-1]; last.Upper != maxKey {
		return nil, fmt.Errorf("gap after %s", last.Upper)
	}
	return sorted, nil
}

func isKey(s string) bool {
	if len(s) != KeyWidth {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// next returns the key immediately after k; k must not be maxKey.
func next(k string) string {
	n, _ := strconv.ParseUint(k, 10, 64)
	return fmt.Sprintf("%0*d", KeyWidth, n+1)
}

// ParseTables reads the SHARD_RANGES format: base tables separated by ';',
// each "BASE=LOWER-UPPER:INSTANCE,..." or "BASE=default" for DefaultRanges.
//
//	SRS_CONTATOS=00000000000-49999999999:SRS_CONTATOS_A,50000000000-99999999999:SRS_CONTATOS_B
func ParseTables(spec string) (map[string][]Range, error) {
	tables := make(map[string][]Range)
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		base, rest, ok := strings.Cut(entry, "=")
		base = strings.TrimSpace(base)
		if !ok || base == "" {
			return nil, fmt.Errorf("shard entry %q: want BASE=ranges", entry)
		}
		if _, dup := tables[base]; dup {
			return nil, fmt.Errorf("shard base %s listed twice", base)
		}
		rest = strings.TrimSpace(rest)
		if strings.EqualFold(rest, "default") {
			tables[base] = DefaultRanges(base)
			continue
		}
		var ranges []Range
		for _, part := range strings.Split(rest, ",") {
			bounds, instance, ok := strings.Cut(strings.TrimSpace(part), ":")
			lower, upper, ok2 := strings.Cut(bounds, "-")
			if !ok || !ok2 {
				return nil, fmt.Errorf("shard range %q: want LOWER-UPPER:INSTANCE", part)
			}
			ranges = append(ranges, Range{
				Lower:    strings.TrimSpace(lower),
				Upper:    strings.TrimSpace(upper),
				Instance: strings.TrimSpace(instance),
			})
		}
		tables[base] = ranges
	}
	return tables, nil
}
