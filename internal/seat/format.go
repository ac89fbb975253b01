package seat

import (
	"fmt"
	"sort"
	"strings"
)

// RowGroup is the seats of a single row, in seat number order
type RowGroup struct {
	Row   string
	Seats []ID
}

// GroupByRow groups seats by row letter. Rows are sorted alphabetically and
// seats within a row by number.
func GroupByRow(s Set) []RowGroup {
	byRow := make(map[byte][]ID)
	for id := range s {
		byRow[id.Row()] = append(byRow[id.Row()], id)
	}

	letters := make([]byte, 0, len(byRow))
	for row := range byRow {
		letters = append(letters, row)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })

	groups := make([]RowGroup, 0, len(letters))
	for _, row := range letters {
		ids := byRow[row]
		sort.Slice(ids, func(i, j int) bool { return ids[i].Number() < ids[j].Number() })
		groups = append(groups, RowGroup{Row: string(row), Seats: ids})
	}
	return groups
}

// FormatByRow renders seats as "Row A: A01, A02" lines separated by a blank line.
// An empty set renders as "None".
func FormatByRow(s Set) string {
	if len(s) == 0 {
		return "None"
	}

	groups := GroupByRow(s)
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		names := make([]string, len(g.Seats))
		for i, id := range g.Seats {
			names[i] = string(id)
		}
		lines = append(lines, fmt.Sprintf("Row %s: %s", g.Row, strings.Join(names, ", ")))
	}
	return strings.Join(lines, "\n\n")
}
