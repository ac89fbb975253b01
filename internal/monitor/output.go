package monitor

import (
	"fmt"
	"io"

	"github.com/pfrederiksen/seatwatch/internal/seat"
)

const stampLayout = "2006-01-02 15:04:05"

func printInitial(w io.Writer, res FetchResult) {
	fmt.Fprintf(w, "Initial state (%s):\n", res.At.Format(stampLayout))
	fmt.Fprintf(w, "Available seats:\n%s\n\n", seat.FormatByRow(res.Seats))
}

func printChange(w io.Writer, res FetchResult, diff seat.DiffResult) {
	fmt.Fprintf(w, "\nChange detected at %s:\n", res.At.Format(stampLayout))
	if diff.Added.Len() > 0 {
		fmt.Fprintf(w, "New seats available:\n%s\n", seat.FormatByRow(diff.Added))
	}
	if diff.Removed.Len() > 0 {
		fmt.Fprintf(w, "Seats no longer available:\n%s\n", seat.FormatByRow(diff.Removed))
	}
	fmt.Fprintf(w, "Total available seats:\n%s\n\n", seat.FormatByRow(res.Seats))
	printCurrent(w, res)
}

func printCurrent(w io.Writer, res FetchResult) {
	fmt.Fprintf(w, "Current state (%s):\n", res.At.Format(stampLayout))
	fmt.Fprintf(w, "Available seats:\n%s\n", seat.FormatByRow(res.Seats))
}

// changeMessage is the notification body for a change
func changeMessage(diff seat.DiffResult) string {
	return fmt.Sprintf("New seats:\n%s\nRemoved:\n%s",
		seat.FormatByRow(diff.Added), seat.FormatByRow(diff.Removed))
}
