package seat

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// DefaultRowCapacity is the number of seat elements the seat map renders per row.
	DefaultRowCapacity = 30
	// DefaultRowLetters lists row letters front to back.
	DefaultRowLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ErrRowLettersExhausted is returned when a seat map has more rows than row letters.
var ErrRowLettersExhausted = errors.New("not enough row letters for seat map")

// RawElement is a single seat element as it appears in the page, in scan order
type RawElement struct {
	Index     int  `json:"index"`
	Invisible bool `json:"invisible"`
	Available bool `json:"available"` // only meaningful when Invisible is false
}

// Layout describes how raw elements map onto rows
type Layout struct {
	RowCapacity int    `yaml:"row_capacity" json:"row_capacity"`
	RowLetters  string `yaml:"row_letters" json:"row_letters"`
}

// DefaultLayout returns the layout used by the AMC seat map
func DefaultLayout() Layout {
	return Layout{
		RowCapacity: DefaultRowCapacity,
		RowLetters:  DefaultRowLetters,
	}
}

// Validate checks that the layout can bucket at least one row
func (l Layout) Validate() error {
	if l.RowCapacity <= 0 {
		return &LayoutError{Reason: fmt.Sprintf("row capacity must be positive, got %d", l.RowCapacity)}
	}
	if l.RowLetters == "" {
		return &LayoutError{Reason: "row letters must not be empty"}
	}
	return nil
}

// LayoutError reports a mismatch between the configured layout and the page.
// It is a configuration problem, not a transient fetch failure.
type LayoutError struct {
	Reason     string
	RowsNeeded int
	RowsKnown  int
	Err        error
}

func (e *LayoutError) Error() string {
	if e.Reason != "" {
		return "invalid seat layout: " + e.Reason
	}
	return fmt.Sprintf("invalid seat layout: %v (need %d rows, have %d)", e.Err, e.RowsNeeded, e.RowsKnown)
}

func (e *LayoutError) Unwrap() error {
	return e.Err
}

// ID is a normalized seat identifier: row letter plus a two digit seat number
type ID string

// NewID builds the identifier for seat number n in the given row
func NewID(row byte, n int) ID {
	return ID(fmt.Sprintf("%c%02d", row, n))
}

// Row returns the row letter of the seat
func (id ID) Row() byte {
	if id == "" {
		return 0
	}
	return id[0]
}

// Number returns the seat number within its row, or 0 if the ID is malformed
func (id ID) Number() int {
	n := 0
	for i := 1; i < len(id); i++ {
		c := id[i]
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Map holds the availability of every numbered seat in one snapshot
type Map map[ID]bool

// Available returns the set of seats that can be purchased
func (m Map) Available() Set {
	set := make(Set)
	for id, ok := range m {
		if ok {
			set[id] = struct{}{}
		}
	}
	return set
}

// Set is an unordered collection of seat IDs
type Set map[ID]struct{}

// NewSet creates a set from the given IDs
func NewSet(ids ...ID) Set {
	set := make(Set, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is in the set
func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of seats in the set
func (s Set) Len() int {
	return len(s)
}

// Equal reports whether both sets hold the same seats
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Sorted returns the IDs in lexicographic order.
// Seat numbers are zero padded, so this is row then seat order.
func (s Set) Sorted() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Normalize converts raw seat elements into a map of normalized seat IDs.
//
// Elements are assigned to rows with a countdown of layout.RowCapacity; each
// row is scanned back to front, so its bucket is reversed before numbering.
// Invisible elements at either end of a row are padding and get no number.
// Seats between the padding are numbered from 1 in left to right order.
func Normalize(raw []RawElement, layout Layout) (Map, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	rowsNeeded := (len(raw) + layout.RowCapacity - 1) / layout.RowCapacity
	if rowsNeeded > len(layout.RowLetters) {
		return nil, &LayoutError{
			RowsNeeded: rowsNeeded,
			RowsKnown:  len(layout.RowLetters),
			Err:        ErrRowLettersExhausted,
		}
	}

	// Collect seats into rows
	rows := make([][]RawElement, 0, rowsNeeded)
	current := -1
	countdown := 0
	for _, el := range raw {
		if countdown == 0 {
			current++
			countdown = layout.RowCapacity
			rows = append(rows, make([]RawElement, 0, layout.RowCapacity))
		}
		rows[current] = append(rows[current], el)
		countdown--
	}

	seats := make(Map, len(raw))
	for i, row := range rows {
		numberRow(seats, layout.RowLetters[i], reversed(row))
	}

	return seats, nil
}

// numberRow trims invisible padding from both ends of a row and numbers the rest
func numberRow(seats Map, letter byte, row []RawElement) {
	left := 0
	for _, el := range row {
		if !el.Invisible {
			break
		}
		left++
	}

	right := 0
	for i := len(row) - 1; i >= 0; i-- {
		if !row[i].Invisible {
			break
		}
		right++
	}

	// An all-invisible row counts every element from both ends
	n := 1
	for i := left; i < len(row)-right; i++ {
		seats[NewID(letter, n)] = row[i].Available
		n++
	}
}

func reversed(row []RawElement) []RawElement {
	out := make([]RawElement, len(row))
	for i, el := range row {
		out[len(row)-1-i] = el
	}
	return out
}
