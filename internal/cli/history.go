package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/seat"
	"github.com/pfrederiksen/seatwatch/internal/storage"
)

// newHistoryCmd creates the command that prints a session stored by --history-db
func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <db> <session_id>",
		Short: "Print the poll records of a recorded session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			mirror, err := storage.OpenSQLiteMirror(cmd.Context(), args[0], "", "")
			if err != nil {
				return err
			}
			defer mirror.Close()

			records, err := mirror.Session(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no records for session %s", args[1])
			}

			writeRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

// writeRecords prints records oldest first as a table
func writeRecords(w io.Writer, records []history.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Event", "Available", "New", "Removed", "Error"})

	for _, r := range records {
		t.AppendRow(table.Row{
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(r.Event),
			len(r.AvailableSeats),
			joinSeats(r.NewSeats),
			joinSeats(r.RemovedSeats),
			r.Error,
		})
	}

	t.Render()
}

func joinSeats(ids []seat.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
