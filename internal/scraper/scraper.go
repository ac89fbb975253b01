package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/seatwatch/internal/seat"
)

const (
	DefaultBaseURL  = "https://www.amctheatres.com"
	DefaultSelector = `[class*="mx-1"]`
	UserAgent       = "seatwatch/1.0 (github.com/pfrederiksen/seatwatch)"
	Timeout         = 10 * time.Second

	classInvisible   = "invisible"
	classUnavailable = "cursor-not-allowed"
)

// ErrNoSeats is returned when the page contains no seat elements
var ErrNoSeats = errors.New("no seat elements found")

// StatusError is returned when the seat page responds with a non-200 status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// FetchError wraps any failure to obtain the seat elements of a showtime
type FetchError struct {
	ShowtimeID string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching seats for showtime %s: %v", e.ShowtimeID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher returns the raw seat elements for a showtime
type Fetcher interface {
	FetchSeats(ctx context.Context, showtimeID string) ([]seat.RawElement, error)
}

// Scraper handles fetching and parsing seat-map pages
type Scraper struct {
	client   *http.Client
	baseURL  string
	selector string
}

// Option configures a Scraper
type Option func(*Scraper)

// WithBaseURL points the scraper at another host, e.g. a test server
func WithBaseURL(url string) Option {
	return func(s *Scraper) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithSelector overrides the CSS selector that matches seat elements
func WithSelector(selector string) Option {
	return func(s *Scraper) {
		s.selector = selector
	}
}

// WithTimeout sets the HTTP client timeout for a single fetch
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		s.client.Timeout = d
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		baseURL:  DefaultBaseURL,
		selector: DefaultSelector,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeatsURL returns the seat-map URL for a showtime
func (s *Scraper) SeatsURL(showtimeID string) string {
	return fmt.Sprintf("%s/showtimes/%s/seats", s.baseURL, showtimeID)
}

// FetchSeats fetches the seat map of a showtime and returns its seat elements in page order.
// Every failure is returned as a *FetchError.
func (s *Scraper) FetchSeats(ctx context.Context, showtimeID string) ([]seat.RawElement, error) {
	elements, err := s.fetch(ctx, showtimeID)
	if err != nil {
		return nil, &FetchError{ShowtimeID: showtimeID, Err: err}
	}
	return elements, nil
}

func (s *Scraper) fetch(ctx context.Context, showtimeID string) ([]seat.RawElement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.SeatsURL(showtimeID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	return s.parseSeats(resp.Body)
}

// parseSeats extracts seat elements from HTML
func (s *Scraper) parseSeats(r io.Reader) ([]seat.RawElement, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	sel := doc.Find(s.selector)
	if sel.Length() == 0 {
		return nil, ErrNoSeats
	}

	elements := make([]seat.RawElement, 0, sel.Length())
	sel.Each(func(i int, el *goquery.Selection) {
		// Substring match, so responsive variants like "md:invisible" count too
		classes := el.AttrOr("class", "")
		elements = append(elements, seat.RawElement{
			Index:     i,
			Invisible: strings.Contains(classes, classInvisible),
			Available: !strings.Contains(classes, classUnavailable),
		})
	})

	return elements, nil
}
