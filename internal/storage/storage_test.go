package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/seat"
)

var t0 = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

func sampleRecords() []history.Record {
	prev := seat.NewSet("A01", "A02")
	cur := seat.NewSet("A02", "A03")
	return []history.Record{
		history.NewInitial(t0, prev),
		history.NewError(t0.Add(15*time.Second), errors.New("no seat elements found")),
		history.NewChange(t0.Add(30*time.Second), cur, seat.Diff(prev, cur)),
		history.NewCheck(t0.Add(45*time.Second), cur),
	}
}

func TestLogFile_SaveLoad(t *testing.T) {
	dir := t.TempDir()

	log, err := NewLogFile(filepath.Join(dir, "nested", "history.json"))
	if err != nil {
		t.Fatalf("NewLogFile() error = %v", err)
	}

	records := sampleRecords()
	if err := log.Save(records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := log.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(got) != len(records) {
		t.Fatalf("Load() returned %d records, want %d", len(got), len(records))
	}
	if got[2].Event != history.KindChange {
		t.Errorf("record 2 event = %s, want change", got[2].Event)
	}
	if len(got[2].NewSeats) != 1 || got[2].NewSeats[0] != "A03" {
		t.Errorf("record 2 new seats = %v, want [A03]", got[2].NewSeats)
	}
	if got[1].Error != "no seat elements found" {
		t.Errorf("record 1 error = %q", got[1].Error)
	}
	if !got[0].Timestamp.Equal(t0) {
		t.Errorf("record 0 timestamp = %v, want %v", got[0].Timestamp, t0)
	}
}

func TestLogFile_RewritesWholeFile(t *testing.T) {
	log, err := NewLogFile(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("NewLogFile() error = %v", err)
	}

	records := sampleRecords()
	if err := log.Save(records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := log.Save(records[:1]); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := log.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected file to be rewritten with 1 record, got %d", len(got))
	}

	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "[\n  {") {
		t.Errorf("expected indented JSON array, got %q", string(data)[:10])
	}
}

func TestLogFile_KeepsEmptySeatLists(t *testing.T) {
	log, err := NewLogFile(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("NewLogFile() error = %v", err)
	}

	soldOut := history.NewChange(t0, seat.NewSet(), seat.Diff(seat.NewSet("A01"), seat.NewSet()))
	if err := log.Save([]history.Record{soldOut}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"available_seats": []`, `"new_seats": []`, `"removed_seats": [`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %s:\n%s", want, data)
		}
	}
}

func TestLogFile_Missing(t *testing.T) {
	log, err := NewLogFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("NewLogFile() error = %v", err)
	}

	got, err := log.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty history, got %d records", len(got))
	}
}

func TestLogFile_EmptyPath(t *testing.T) {
	if _, err := NewLogFile(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestLogFile_WriteError(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLogFile(filepath.Join(dir, "history.json"))
	if err != nil {
		t.Fatalf("NewLogFile() error = %v", err)
	}

	// A directory in place of the file makes the write fail
	if err := os.Mkdir(log.Path(), 0755); err != nil {
		t.Fatal(err)
	}

	if err := log.Save(sampleRecords()); err == nil {
		t.Error("expected write error")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/seats/log.json", filepath.Join(home, "seats/log.json")},
		{"~", home},
		{"/tmp/log.json", "/tmp/log.json"},
		{"log.json", "log.json"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandPath(tt.in)
			if err != nil {
				t.Fatalf("ExpandPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSQLiteMirror(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	mirror, err := OpenSQLiteMirror(ctx, path, "session-1", "12345")
	if err != nil {
		t.Fatalf("OpenSQLiteMirror() error = %v", err)
	}
	defer mirror.Close() // nolint:errcheck

	records := sampleRecords()
	for _, r := range records {
		if err := mirror.Append(ctx, r); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	other, err := OpenSQLiteMirror(ctx, path, "session-2", "12345")
	if err != nil {
		t.Fatalf("OpenSQLiteMirror() second session error = %v", err)
	}
	if err := other.Append(ctx, records[0]); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	other.Close() // nolint:errcheck

	got, err := mirror.Session(ctx, "session-1")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("Session() returned %d records, want %d", len(got), len(records))
	}

	for i := range records {
		if got[i].Event != records[i].Event {
			t.Errorf("record %d event = %s, want %s", i, got[i].Event, records[i].Event)
		}
		if !got[i].Timestamp.Equal(records[i].Timestamp) {
			t.Errorf("record %d timestamp = %v, want %v", i, got[i].Timestamp, records[i].Timestamp)
		}
		if len(got[i].AvailableSeats) != len(records[i].AvailableSeats) {
			t.Errorf("record %d available = %v, want %v", i, got[i].AvailableSeats, records[i].AvailableSeats)
		}
	}
	if got[1].Error == "" {
		t.Error("expected error message on error record")
	}
	if got[2].RemovedSeats[0] != "A01" {
		t.Errorf("removed seats = %v, want [A01]", got[2].RemovedSeats)
	}
}
