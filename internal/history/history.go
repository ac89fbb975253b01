package history

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pfrederiksen/seatwatch/internal/seat"
)

// Kind classifies a poll
type Kind string

const (
	KindInitial Kind = "initial"
	KindChange  Kind = "change"
	KindCheck   Kind = "check"
	KindError   Kind = "error"
)

// Record is the outcome of one poll
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	Event          Kind      `json:"event"`
	AvailableSeats []seat.ID `json:"available_seats"`
	NewSeats       []seat.ID `json:"new_seats,omitempty"`
	RemovedSeats   []seat.ID `json:"removed_seats,omitempty"`
	Error          string    `json:"error,omitempty"`
}

type recordHeader struct {
	Timestamp time.Time `json:"timestamp"`
	Event     Kind      `json:"event"`
}

// MarshalJSON writes available_seats on every successful poll and both
// seat lists on every change, empty or not. Error records carry only the error.
func (r Record) MarshalJSON() ([]byte, error) {
	header := recordHeader{Timestamp: r.Timestamp, Event: r.Event}

	switch r.Event {
	case KindError:
		return json.Marshal(struct {
			recordHeader
			Error string `json:"error"`
		}{header, r.Error})
	case KindChange:
		return json.Marshal(struct {
			recordHeader
			AvailableSeats []seat.ID `json:"available_seats"`
			NewSeats       []seat.ID `json:"new_seats"`
			RemovedSeats   []seat.ID `json:"removed_seats"`
		}{header, orEmpty(r.AvailableSeats), orEmpty(r.NewSeats), orEmpty(r.RemovedSeats)})
	default:
		return json.Marshal(struct {
			recordHeader
			AvailableSeats []seat.ID `json:"available_seats"`
		}{header, orEmpty(r.AvailableSeats)})
	}
}

func orEmpty(ids []seat.ID) []seat.ID {
	if ids == nil {
		return []seat.ID{}
	}
	return ids
}

// NewInitial records the first successful poll of a session
func NewInitial(at time.Time, available seat.Set) Record {
	return Record{
		Timestamp:      at,
		Event:          KindInitial,
		AvailableSeats: available.Sorted(),
	}
}

// NewChange records a poll whose available seats differ from the previous poll
func NewChange(at time.Time, available seat.Set, diff seat.DiffResult) Record {
	return Record{
		Timestamp:      at,
		Event:          KindChange,
		AvailableSeats: available.Sorted(),
		NewSeats:       diff.Added.Sorted(),
		RemovedSeats:   diff.Removed.Sorted(),
	}
}

// NewCheck records a poll that found no change
func NewCheck(at time.Time, available seat.Set) Record {
	return Record{
		Timestamp:      at,
		Event:          KindCheck,
		AvailableSeats: available.Sorted(),
	}
}

// NewError records a failed poll
func NewError(at time.Time, err error) Record {
	return Record{
		Timestamp: at,
		Event:     KindError,
		Error:     err.Error(),
	}
}

// Store is the ordered, append-only list of records for one session.
// It is written by the polling loop and may be read concurrently by the report server.
type Store struct {
	mu      sync.RWMutex
	records []Record
}

// NewStore creates an empty history
func NewStore() *Store {
	return &Store{records: make([]Record, 0)}
}

// Append adds a record to the end of the history
func (s *Store) Append(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// Records returns a copy of all records in order
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Last returns the most recent record, if any
func (s *Store) Last() (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	return s.records[len(s.records)-1], true
}

// Stats summarizes a history for display
type Stats struct {
	Polls     int
	Changes   int
	Errors    int
	Available int
	UpdatedAt time.Time
}

// Summarize counts polls, changes and errors, and reports the available seat
// count of the most recent successful poll
func Summarize(records []Record) Stats {
	var st Stats
	st.Polls = len(records)
	for _, r := range records {
		switch r.Event {
		case KindChange:
			st.Changes++
		case KindError:
			st.Errors++
		}
		if r.Event != KindError {
			st.Available = len(r.AvailableSeats)
		}
		st.UpdatedAt = r.Timestamp
	}
	return st
}
