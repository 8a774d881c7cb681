package filters

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Key is a canonical string for the filter criteria, stable under
// selection order, used to key cached query results.
func (f Filters) Key() string {
	var b strings.Builder
	b.WriteString("from=")
	b.WriteString(formatBound(f.From))
	b.WriteString("&to=")
	b.WriteString(formatBound(f.To))
	b.WriteString("&accounts=")
	b.WriteString(joinSorted(f.Accounts))
	b.WriteString("&categories=")
	b.WriteString(joinSorted(f.Categories))
	return b.String()
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.UTC().Format(time.RFC3339)
}

func joinSorted(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
