package monitor

import (
	"github.com/google/uuid"

	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/seat"
)

// Session is the state of one monitoring session. It is created when
// monitoring starts, updated once per cycle and discarded when it stops.
type Session struct {
	ID         string
	ShowtimeID string
	History    *history.Store

	previous seat.Set
	seen     bool // at least one poll was classified successfully
}

// NewSession creates an empty session with a fresh ID
func NewSession(showtimeID string) *Session {
	return &Session{
		ID:         uuid.NewString(),
		ShowtimeID: showtimeID,
		History:    history.NewStore(),
		previous:   make(seat.Set),
	}
}

// Previous returns the available seats of the last successful poll
func (s *Session) Previous() seat.Set {
	return s.previous
}

// Started reports whether the session has classified a successful poll
func (s *Session) Started() bool {
	return s.seen
}

// classify records a successful poll and advances the previous snapshot
func (s *Session) classify(res FetchResult) (history.Record, seat.DiffResult) {
	var (
		rec  history.Record
		diff seat.DiffResult
	)

	switch {
	case !s.seen:
		rec = history.NewInitial(res.At, res.Seats)
	default:
		diff = seat.Diff(s.previous, res.Seats)
		if diff.Changed() {
			rec = history.NewChange(res.At, res.Seats, diff)
		} else {
			rec = history.NewCheck(res.At, res.Seats)
		}
	}

	s.History.Append(rec)
	s.previous = res.Seats
	s.seen = true
	return rec, diff
}

// fail records a failed poll. The previous snapshot is kept.
func (s *Session) fail(res FetchResult) history.Record {
	rec := history.NewError(res.At, res.Err)
	s.History.Append(rec)
	return rec
}
