// Package cli implements the command-line interface for seatwatch.
//
// The cli package provides the Cobra-based root command that monitors the seat map
// of one showtime. It wires the scraper, notifiers, history log, optional SQLite
// mirror and HTML report into a monitor.Monitor, runs it until interrupted and
// prints a session summary on the way out.
package cli
