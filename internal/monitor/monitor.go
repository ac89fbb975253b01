package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/logger"
	"github.com/pfrederiksen/seatwatch/internal/notifier"
	"github.com/pfrederiksen/seatwatch/internal/scraper"
	"github.com/pfrederiksen/seatwatch/internal/seat"
)

// DefaultInterval is the delay between polls
const DefaultInterval = 15 * time.Second

// FetchResult is the outcome of fetching and normalizing one seat map
type FetchResult struct {
	At    time.Time
	Seats seat.Set
	Err   error
}

// OK reports whether the fetch succeeded
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// HistoryWriter persists the full history, replacing any earlier copy
type HistoryWriter interface {
	Save(records []history.Record) error
}

// RecordSink receives every record as it is appended
type RecordSink interface {
	Append(ctx context.Context, r history.Record) error
}

// RenderFunc turns a history into an HTML report
type RenderFunc func(records []history.Record, showtimeID string) (string, error)

// Config controls a monitoring session
type Config struct {
	ShowtimeID string
	SessionID  string // generated when empty
	Interval   time.Duration
	Layout     seat.Layout
	ReportPath string // empty disables the report file
	OpenReport bool   // open the report in a browser after the initial poll
}

// Deps are the collaborators of the polling loop. Fetcher is required;
// everything else is optional.
type Deps struct {
	Fetcher  scraper.Fetcher
	Notifier notifier.Notifier
	Render   RenderFunc
	LogFile  HistoryWriter
	Mirror   RecordSink
	Open     func(url string) error
	Out      io.Writer
	Logger   *logger.Logger
	Metrics  *logger.Metrics
	Now      func() time.Time
	Sleep    func(ctx context.Context, d time.Duration) error
}

// Monitor runs the polling loop for one session
type Monitor struct {
	cfg     Config
	deps    Deps
	session *Session
	log     *logger.Logger
}

// New creates a monitor with a fresh session
func New(cfg Config, deps Deps) (*Monitor, error) {
	if cfg.ShowtimeID == "" {
		return nil, errors.New("showtime ID is required")
	}
	if deps.Fetcher == nil {
		return nil, errors.New("seat fetcher is required")
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	if deps.Notifier == nil {
		deps.Notifier = notifier.Nop{}
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = logger.DefaultMetrics()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}

	session := NewSession(cfg.ShowtimeID)
	if cfg.SessionID != "" {
		session.ID = cfg.SessionID
	}
	return &Monitor{
		cfg:     cfg,
		deps:    deps,
		session: session,
		log: deps.Logger.With(logger.Fields{
			"session_id":  session.ID,
			"showtime_id": cfg.ShowtimeID,
		}),
	}, nil
}

// Session returns the state of the running session
func (m *Monitor) Session() *Session {
	return m.session
}

// Run polls until ctx is cancelled or a configuration error occurs.
// Cancellation is observed between cycles; a fetch in flight is allowed to finish.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("Starting seat monitor", logger.Fields{"interval": m.cfg.Interval.String()})
	fmt.Fprintf(m.deps.Out, "Starting seat monitor for showtime %s\n", m.cfg.ShowtimeID)
	fmt.Fprintf(m.deps.Out, "Press Ctrl+C to stop monitoring\n\n")

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := m.Cycle(ctx); err != nil {
			return err
		}

		if err := m.deps.Sleep(ctx, m.cfg.Interval); err != nil {
			return nil
		}
	}
}

// Cycle runs a single poll and returns the record it appended.
// The only error it returns is a fatal layout error.
func (m *Monitor) Cycle(ctx context.Context) (history.Record, error) {
	res, err := m.fetch(ctx)
	if err != nil {
		m.log.Error("Seat layout does not match page", nil, err)
		return history.Record{}, err
	}

	if !res.OK() {
		rec := m.session.fail(res)
		m.deps.Metrics.IncrCounter("poll.error")
		m.log.Warn("Fetching seats failed", logger.Fields{"error": res.Err.Error()})
		fmt.Fprintf(m.deps.Out, "\nError occurred: %v\n", res.Err)
		m.mirror(ctx, rec)
		return rec, nil
	}

	rec, diff := m.session.classify(res)
	m.deps.Metrics.IncrCounter("poll." + string(rec.Event))
	m.deps.Metrics.SetGauge("seats.available", float64(res.Seats.Len()))
	m.log.Info("Poll classified", logger.Fields{
		"event":     string(rec.Event),
		"available": res.Seats.Len(),
		"added":     diff.Added.Len(),
		"removed":   diff.Removed.Len(),
	})

	switch rec.Event {
	case history.KindInitial:
		printInitial(m.deps.Out, res)
		m.notify(ctx, "Seat Monitor Started",
			fmt.Sprintf("Monitoring showtime %s - Initial seats: %d", m.cfg.ShowtimeID, res.Seats.Len()))
	case history.KindChange:
		printChange(m.deps.Out, res, diff)
		m.notify(ctx, "Seats Changed!", changeMessage(diff))
		m.persist()
	case history.KindCheck:
		printCurrent(m.deps.Out, res)
		m.persist()
	}

	m.mirror(ctx, rec)
	m.writeReport()

	if rec.Event == history.KindInitial && m.cfg.OpenReport {
		m.openReport()
	}

	return rec, nil
}

// fetch gets and normalizes the seat map. Fetch failures are returned in the
// result; a layout error is returned as err.
func (m *Monitor) fetch(ctx context.Context) (FetchResult, error) {
	res := FetchResult{At: m.deps.Now()}

	// An interrupt must not abort a fetch that already started
	start := time.Now()
	raw, err := m.deps.Fetcher.FetchSeats(context.WithoutCancel(ctx), m.cfg.ShowtimeID)
	m.deps.Metrics.RecordTiming("fetch.duration", time.Since(start))
	if err != nil {
		res.Err = err
		return res, nil
	}

	m.log.Debug("Fetched seat elements", logger.Fields{"elements": len(raw)})

	seats, err := seat.Normalize(raw, m.cfg.Layout)
	if err != nil {
		var layoutErr *seat.LayoutError
		if errors.As(err, &layoutErr) {
			return res, err
		}
		res.Err = err
		return res, nil
	}

	res.Seats = seats.Available()
	return res, nil
}

func (m *Monitor) notify(ctx context.Context, title, message string) {
	err := m.deps.Notifier.Notify(ctx, title, message)
	switch {
	case err == nil:
	case errors.Is(err, notifier.ErrThrottled):
		m.deps.Metrics.IncrCounter("notify.throttled")
		m.log.Warn("Notification dropped by throttle", logger.Fields{"title": title})
	default:
		m.deps.Metrics.IncrCounter("notify.errors")
		m.log.Warn("Sending notification failed", logger.Fields{"title": title, "error": err.Error()})
	}
}

func (m *Monitor) persist() {
	if m.deps.LogFile == nil {
		return
	}
	if err := m.deps.LogFile.Save(m.session.History.Records()); err != nil {
		m.deps.Metrics.IncrCounter("log.write_errors")
		m.log.Error("Writing history log failed", nil, err)
		return
	}
	m.deps.Metrics.IncrCounter("log.writes")
}

func (m *Monitor) mirror(ctx context.Context, rec history.Record) {
	if m.deps.Mirror == nil {
		return
	}
	if err := m.deps.Mirror.Append(context.WithoutCancel(ctx), rec); err != nil {
		m.deps.Metrics.IncrCounter("mirror.write_errors")
		m.log.Error("Mirroring poll record failed", nil, err)
	}
}

func (m *Monitor) writeReport() {
	if m.deps.Render == nil || m.cfg.ReportPath == "" {
		return
	}

	content, err := m.deps.Render(m.session.History.Records(), m.cfg.ShowtimeID)
	if err == nil {
		err = os.WriteFile(m.cfg.ReportPath, []byte(content), 0644)
	}
	if err != nil {
		m.deps.Metrics.IncrCounter("report.write_errors")
		m.log.Error("Writing report failed", logger.Fields{"path": m.cfg.ReportPath}, err)
	}
}

func (m *Monitor) openReport() {
	if m.deps.Open == nil || m.cfg.ReportPath == "" {
		return
	}
	if err := m.deps.Open("file://" + m.cfg.ReportPath); err != nil {
		m.log.Warn("Opening report failed", logger.Fields{"error": err.Error()})
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
