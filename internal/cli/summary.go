package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/logger"
)

// writeSummary prints the session totals and the collected metrics as a table
func writeSummary(w io.Writer, st history.Stats, snap logger.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Session summary")
	t.AppendHeader(table.Row{"Metric", "Value"})

	t.AppendRow(table.Row{"Polls", st.Polls})
	t.AppendRow(table.Row{"Changes", st.Changes})
	t.AppendRow(table.Row{"Errors", st.Errors})
	t.AppendRow(table.Row{"Available seats", st.Available})
	if !st.UpdatedAt.IsZero() {
		t.AppendRow(table.Row{"Last poll", st.UpdatedAt.Format("2006-01-02 15:04:05")})
	}

	if len(snap.Counters) > 0 {
		t.AppendSeparator()
		for _, name := range snap.CounterNames() {
			t.AppendRow(table.Row{name, snap.Counters[name]})
		}
	}

	if ft, ok := snap.Timings["fetch.duration"]; ok {
		t.AppendSeparator()
		t.AppendRow(table.Row{"fetch avg", ft.Average.Round(time.Millisecond).String()})
		t.AppendRow(table.Row{"fetch max", ft.Max.Round(time.Millisecond).String()})
	}

	t.Render()
	fmt.Fprintln(w)
}
