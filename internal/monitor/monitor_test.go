package monitor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/logger"
	"github.com/pfrederiksen/seatwatch/internal/notifier"
	"github.com/pfrederiksen/seatwatch/internal/seat"
)

var t0 = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

// row builds the scan-order elements of a single row described left to right
// ('_' invisible, 'o' available, 'x' taken)
func row(desc string) []seat.RawElement {
	raw := make([]seat.RawElement, len(desc))
	for i := range desc {
		c := desc[len(desc)-1-i]
		raw[i] = seat.RawElement{Index: i, Invisible: c == '_', Available: c != 'x'}
	}
	return raw
}

type step struct {
	raw []seat.RawElement
	err error
}

type scriptedFetcher struct {
	steps []step
	calls int
}

func (f *scriptedFetcher) FetchSeats(_ context.Context, _ string) ([]seat.RawElement, error) {
	s := f.steps[f.calls%len(f.steps)]
	f.calls++
	return s.raw, s.err
}

type notification struct {
	title, message string
}

type fakeNotifier struct {
	sent []notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, title, message string) error {
	n.sent = append(n.sent, notification{title, message})
	return n.err
}

type fakeLog struct {
	saves [][]history.Record
	err   error
}

func (l *fakeLog) Save(records []history.Record) error {
	l.saves = append(l.saves, records)
	return l.err
}

type harness struct {
	mon      *Monitor
	fetcher  *scriptedFetcher
	notifier *fakeNotifier
	log      *fakeLog
	renders  int
	out      *bytes.Buffer
	metrics  *logger.Metrics
	report   string
}

func newHarness(t *testing.T, steps ...step) *harness {
	t.Helper()

	h := &harness{
		fetcher:  &scriptedFetcher{steps: steps},
		notifier: &fakeNotifier{},
		log:      &fakeLog{},
		out:      &bytes.Buffer{},
		metrics:  logger.NewMetrics(),
		report:   filepath.Join(t.TempDir(), "report.html"),
	}

	tick := 0
	mon, err := New(Config{
		ShowtimeID: "12345",
		Interval:   time.Second,
		Layout:     seat.Layout{RowCapacity: 6, RowLetters: "A"},
		ReportPath: h.report,
	}, Deps{
		Fetcher:  h.fetcher,
		Notifier: h.notifier,
		Render: func(records []history.Record, showtimeID string) (string, error) {
			h.renders++
			return "<html>" + showtimeID + "</html>", nil
		},
		LogFile: h.log,
		Out:     h.out,
		Logger:  logger.New(logger.LevelError, &bytes.Buffer{}),
		Metrics: h.metrics,
		Now: func() time.Time {
			tick++
			return t0.Add(time.Duration(tick-1) * 15 * time.Second)
		},
	})
	require.NoError(t, err)
	h.mon = mon
	return h
}

func (h *harness) cycle(t *testing.T) history.Record {
	t.Helper()
	rec, err := h.mon.Cycle(context.Background())
	require.NoError(t, err)
	return rec
}

func TestCycle_Classification(t *testing.T) {
	h := newHarness(t,
		step{raw: row("__oox_")}, // A01 A02 available, A03 taken
		step{raw: row("__oox_")},
		step{raw: row("__xoo_")},
	)

	initial := h.cycle(t)
	assert.Equal(t, history.KindInitial, initial.Event)
	assert.Equal(t, []seat.ID{"A01", "A02"}, initial.AvailableSeats)

	check := h.cycle(t)
	assert.Equal(t, history.KindCheck, check.Event)
	assert.Empty(t, check.NewSeats)
	assert.Empty(t, check.RemovedSeats)

	change := h.cycle(t)
	want := history.Record{
		Timestamp:      t0.Add(30 * time.Second),
		Event:          history.KindChange,
		AvailableSeats: []seat.ID{"A02", "A03"},
		NewSeats:       []seat.ID{"A03"},
		RemovedSeats:   []seat.ID{"A01"},
	}
	if diff := cmp.Diff(want, change); diff != "" {
		t.Errorf("change record mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 3, h.mon.Session().History.Len())
	assert.True(t, h.mon.Session().Previous().Equal(seat.NewSet("A02", "A03")))
	assert.Equal(t, int64(1), h.metrics.Counter("poll.initial"))
	assert.Equal(t, int64(1), h.metrics.Counter("poll.check"))
	assert.Equal(t, int64(1), h.metrics.Counter("poll.change"))
}

func TestCycle_SideEffects(t *testing.T) {
	h := newHarness(t,
		step{raw: row("__oox_")},
		step{raw: row("__oox_")},
		step{raw: row("__xoo_")},
	)

	// initial: one notification, report written, no log write
	h.cycle(t)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "Seat Monitor Started", h.notifier.sent[0].title)
	assert.Equal(t, "Monitoring showtime 12345 - Initial seats: 2", h.notifier.sent[0].message)
	assert.Empty(t, h.log.saves)
	assert.Equal(t, 1, h.renders)

	data, err := os.ReadFile(h.report)
	require.NoError(t, err)
	assert.Equal(t, "<html>12345</html>", string(data))

	// check: log written, no notification
	h.cycle(t)
	assert.Len(t, h.notifier.sent, 1)
	require.Len(t, h.log.saves, 1)
	assert.Len(t, h.log.saves[0], 2)
	assert.Equal(t, 2, h.renders)

	// change: notification with both sets, full history persisted
	h.cycle(t)
	require.Len(t, h.notifier.sent, 2)
	assert.Equal(t, "Seats Changed!", h.notifier.sent[1].title)
	assert.Equal(t, "New seats:\nRow A: A03\nRemoved:\nRow A: A01", h.notifier.sent[1].message)
	require.Len(t, h.log.saves, 2)
	assert.Len(t, h.log.saves[1], 3)
	assert.Equal(t, 3, h.renders)

	out := h.out.String()
	assert.Contains(t, out, "Initial state (2026-03-14 19:30:00):")
	assert.Contains(t, out, "Change detected at 2026-03-14 19:30:30:")
	assert.Contains(t, out, "New seats available:\nRow A: A03")
	assert.Contains(t, out, "Seats no longer available:\nRow A: A01")
}

func TestCycle_ErrorKeepsPrevious(t *testing.T) {
	fetchErr := errors.New("no seat elements found")
	h := newHarness(t,
		step{raw: row("__oox_")},
		step{err: fetchErr},
		step{raw: row("__oox_")},
	)

	h.cycle(t)

	failed := h.cycle(t)
	assert.Equal(t, history.KindError, failed.Event)
	assert.Equal(t, "no seat elements found", failed.Error)
	assert.Equal(t, t0.Add(15*time.Second), failed.Timestamp)
	assert.True(t, h.mon.Session().Previous().Equal(seat.NewSet("A01", "A02")))

	// no log write or report render after an error
	assert.Empty(t, h.log.saves)
	assert.Equal(t, 1, h.renders)
	assert.Len(t, h.notifier.sent, 1)

	// diffed against the last successful poll, not an empty set
	next := h.cycle(t)
	assert.Equal(t, history.KindCheck, next.Event)
	assert.Equal(t, int64(1), h.metrics.Counter("poll.error"))
	assert.Contains(t, h.out.String(), "Error occurred: no seat elements found")
}

func TestCycle_InitialAfterEarlyErrors(t *testing.T) {
	h := newHarness(t,
		step{err: errors.New("timeout")},
		step{err: errors.New("timeout")},
		step{raw: row("oooooo")},
		step{raw: row("xxxxxx")},
		step{raw: row("oxxxxx")},
	)

	assert.Equal(t, history.KindError, h.cycle(t).Event)
	assert.Equal(t, history.KindError, h.cycle(t).Event)
	assert.False(t, h.mon.Session().Started())
	assert.Equal(t, history.KindInitial, h.cycle(t).Event)

	// a sold-out map is a change, and the poll after it is not a second initial
	soldOut := h.cycle(t)
	assert.Equal(t, history.KindChange, soldOut.Event)
	assert.Empty(t, soldOut.AvailableSeats)
	assert.Len(t, soldOut.RemovedSeats, 6)

	back := h.cycle(t)
	assert.Equal(t, history.KindChange, back.Event)
	assert.Equal(t, []seat.ID{"A01"}, back.NewSeats)
}

func TestCycle_LayoutErrorIsFatal(t *testing.T) {
	raw := append(row("oooooo"), row("oooooo")...)
	h := newHarness(t, step{raw: raw})

	_, err := h.mon.Cycle(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, seat.ErrRowLettersExhausted))
	assert.Equal(t, 0, h.mon.Session().History.Len())
}

func TestCycle_SinkFailuresAreNotFatal(t *testing.T) {
	h := newHarness(t,
		step{raw: row("__oox_")},
		step{raw: row("__xoo_")},
	)
	h.log.err = errors.New("disk full")
	h.notifier.err = errors.New("notification center offline")

	h.cycle(t)
	rec := h.cycle(t)

	assert.Equal(t, history.KindChange, rec.Event)
	assert.Equal(t, int64(1), h.metrics.Counter("log.write_errors"))
	assert.Equal(t, int64(2), h.metrics.Counter("notify.errors"))
}

func TestCycle_ThrottledNotificationIsNotAnError(t *testing.T) {
	h := newHarness(t, step{raw: row("__oox_")})
	h.notifier.err = notifier.ErrThrottled

	h.cycle(t)
	assert.Equal(t, int64(0), h.metrics.Counter("notify.errors"))
	assert.Equal(t, int64(1), h.metrics.Counter("notify.throttled"))
}

func TestCycle_CountsLogWrites(t *testing.T) {
	h := newHarness(t, step{raw: row("__oox_")})

	h.cycle(t)
	assert.Equal(t, int64(0), h.metrics.Counter("log.writes"))

	h.cycle(t)
	h.cycle(t)
	assert.Equal(t, int64(2), h.metrics.Counter("log.writes"))

	h.log.err = errors.New("disk full")
	h.cycle(t)
	assert.Equal(t, int64(2), h.metrics.Counter("log.writes"))
	assert.Equal(t, int64(1), h.metrics.Counter("log.write_errors"))
}

func TestCycle_Idempotent(t *testing.T) {
	h := newHarness(t, step{raw: row("_oxoxo")})

	h.cycle(t)
	for i := 0; i < 3; i++ {
		assert.Equal(t, history.KindCheck, h.cycle(t).Event)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := newHarness(t, step{raw: row("__oox_")}, step{raw: row("__xoo_")})

	ctx, cancel := context.WithCancel(context.Background())
	sleeps := 0
	h.mon.deps.Sleep = func(ctx context.Context, d time.Duration) error {
		assert.Equal(t, time.Second, d)
		sleeps++
		if sleeps == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	require.NoError(t, h.mon.Run(ctx))
	assert.Equal(t, 3, h.fetcher.calls)
	assert.Equal(t, 3, h.mon.Session().History.Len())
	assert.True(t, strings.HasPrefix(h.out.String(), "Starting seat monitor for showtime 12345\n"))
}

func TestRun_ReturnsLayoutError(t *testing.T) {
	h := newHarness(t, step{raw: row("oooooooo")})
	h.mon.deps.Sleep = func(context.Context, time.Duration) error { return nil }

	err := h.mon.Run(context.Background())
	var layoutErr *seat.LayoutError
	assert.True(t, errors.As(err, &layoutErr))
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	h := newHarness(t, step{raw: row("oooooo")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.mon.Run(ctx))
	assert.Equal(t, 0, h.fetcher.calls)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Layout: seat.DefaultLayout()}, Deps{Fetcher: &scriptedFetcher{}})
	assert.Error(t, err)

	_, err = New(Config{ShowtimeID: "1", Layout: seat.DefaultLayout()}, Deps{})
	assert.Error(t, err)

	_, err = New(Config{ShowtimeID: "1"}, Deps{Fetcher: &scriptedFetcher{}})
	assert.Error(t, err)

	mon, err := New(Config{ShowtimeID: "1", Layout: seat.DefaultLayout()}, Deps{Fetcher: &scriptedFetcher{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, mon.cfg.Interval)
	assert.NotEmpty(t, mon.Session().ID)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, sleepContext(ctx, time.Hour))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

func TestNew_SessionID(t *testing.T) {
	mon, err := New(Config{ShowtimeID: "1", SessionID: "fixed", Layout: seat.DefaultLayout()},
		Deps{Fetcher: &scriptedFetcher{}})
	require.NoError(t, err)
	assert.Equal(t, "fixed", mon.Session().ID)
}
