package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/seat"
)

const timeLayout = "2006-01-02 15:04:05"

// DefaultRefresh is how often, in seconds, the page reloads itself
const DefaultRefresh = 15

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html.tmpl"))

type page struct {
	ShowtimeID string
	UpdatedAt  string
	Refresh    int
	Polls      int
	Available  int
	Changes    int
	Rows       []row
}

type row struct {
	RowClass  string
	Time      string
	Kind      string
	Label     string
	ShowSeats bool
	Seats     []string
	Added     []string
	Removed   []string
	Note      string
}

var labels = map[history.Kind]string{
	history.KindInitial: "Initial Check",
	history.KindChange:  "Change Detected",
	history.KindCheck:   "Regular Check",
	history.KindError:   "Error",
}

// Render returns the HTML report for a history, newest record first.
// The output depends only on its arguments.
func Render(records []history.Record, showtimeID string) (string, error) {
	stats := history.Summarize(records)

	p := page{
		ShowtimeID: showtimeID,
		UpdatedAt:  "never",
		Refresh:    DefaultRefresh,
		Polls:      stats.Polls,
		Available:  stats.Available,
		Changes:    stats.Changes,
		Rows:       make([]row, 0, len(records)),
	}
	if !stats.UpdatedAt.IsZero() {
		p.UpdatedAt = stats.UpdatedAt.Format(timeLayout)
	}

	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		rw := row{
			Time:  r.Timestamp.Format(timeLayout),
			Kind:  string(r.Event),
			Label: labels[r.Event],
		}
		if i == len(records)-1 {
			rw.RowClass = "latest-check"
		}

		switch r.Event {
		case history.KindInitial:
			rw.ShowSeats = true
			rw.Seats = rowLines(r.AvailableSeats)
			rw.Note = "Initial state"
		case history.KindChange:
			rw.ShowSeats = true
			rw.Seats = rowLines(r.AvailableSeats)
			rw.Added = rowLines(r.NewSeats)
			rw.Removed = rowLines(r.RemovedSeats)
		case history.KindCheck:
			rw.ShowSeats = true
			rw.Seats = rowLines(r.AvailableSeats)
			rw.Note = "No changes"
		case history.KindError:
			rw.Note = r.Error
		}

		p.Rows = append(p.Rows, rw)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return buf.String(), nil
}

// rowLines formats seats as one "Row A: A01, A02" line per row
func rowLines(ids []seat.ID) []string {
	if len(ids) == 0 {
		return nil
	}
	groups := seat.GroupByRow(seat.NewSet(ids...))
	lines := make([]string, len(groups))
	for i, g := range groups {
		names := make([]string, len(g.Seats))
		for j, id := range g.Seats {
			names[j] = string(id)
		}
		lines[i] = fmt.Sprintf("Row %s: %s", g.Row, strings.Join(names, ", "))
	}
	return lines
}

// Path returns the report file path for a showtime inside dir
func Path(dir, showtimeID string) string {
	return filepath.Join(dir, fmt.Sprintf("seat_history_%s.html", showtimeID))
}
