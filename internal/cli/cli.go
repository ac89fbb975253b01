package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/seatwatch/internal/config"
	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/logger"
	"github.com/pfrederiksen/seatwatch/internal/monitor"
	"github.com/pfrederiksen/seatwatch/internal/notifier"
	"github.com/pfrederiksen/seatwatch/internal/report"
	"github.com/pfrederiksen/seatwatch/internal/scraper"
	"github.com/pfrederiksen/seatwatch/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// options holds the flag values of one command invocation
type options struct {
	interval    time.Duration
	reportDir   string
	venue       string
	notifiers   string
	notifyBurst int
	notifyEvery time.Duration
	historyDB   string
	serve       string
	open        bool
	verbose     bool
	logLevel    string
	baseURL     string
	envFile     string
	timeout     time.Duration
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "seatwatch <showtime_id> [log_file]",
		Short: "Watch a showtime's seat map for seats opening up",
		Long: `A CLI tool that polls the seat map of a movie showtime and reports
seats that become available or are taken. Every poll is recorded in a
history; with a log file the history is saved as JSON after each poll.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runMonitor(cmd, args, opts)
		},
	}

	cmd.AddCommand(newHistoryCmd())

	// Define flags
	cmd.Flags().DurationVar(&opts.interval, "interval", monitor.DefaultInterval, "Delay between polls")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", "~", "Directory for the HTML report")
	cmd.Flags().StringVar(&opts.venue, "venue", "", "Venue YAML file with row_capacity, row_letters and selector")
	cmd.Flags().StringVar(&opts.notifiers, "notifier", "desktop", "Notifiers, comma separated: desktop, telegram, dry-run or none")
	cmd.Flags().IntVar(&opts.notifyBurst, "notify-burst", 3, "Notifications allowed in a burst when throttling")
	cmd.Flags().DurationVar(&opts.notifyEvery, "notify-every", 0, "Minimum spacing of notifications after a burst (0 disables throttling)")
	cmd.Flags().StringVar(&opts.historyDB, "history-db", "", "SQLite database that mirrors every poll record")
	cmd.Flags().StringVar(&opts.serve, "serve", "", "Serve the live report on this address (e.g. :8080)")
	cmd.Flags().BoolVar(&opts.open, "open", false, "Open the report in a browser after the first poll")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging (same as --log-level debug)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().DurationVar(&opts.timeout, "fetch-timeout", scraper.Timeout, "Timeout for fetching one seat map")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Base URL of the seat pages (or env: "+config.EnvBaseURL+")")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Environment file to load if present")

	return cmd
}

// runMonitor is the main command logic
func runMonitor(cmd *cobra.Command, args []string, opts *options) error {
	showtimeID := args[0]
	out := cmd.OutOrStdout()

	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	if opts.verbose {
		level = logger.LevelDebug
	}
	log := logger.New(level, cmd.ErrOrStderr())
	logger.SetDefault(log)

	env, err := config.LoadEnv(opts.envFile)
	if err != nil {
		return err
	}

	venue, err := config.LoadVenue(opts.venue)
	if err != nil {
		return err
	}

	baseURL := env.BaseURL
	if opts.baseURL != "" {
		baseURL = opts.baseURL
	}

	n, err := buildNotifier(opts, env, out)
	if err != nil {
		return err
	}

	var logFile *storage.LogFile
	if len(args) == 2 {
		logFile, err = storage.NewLogFile(args[1])
		if err != nil {
			return fmt.Errorf("initializing log file: %w", err)
		}
	}

	reportFile, err := reportPath(opts.reportDir, showtimeID)
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	metrics := logger.NewMetrics()

	deps := monitor.Deps{
		Fetcher: scraper.New(
			scraper.WithBaseURL(baseURL),
			scraper.WithSelector(venue.Selector),
			scraper.WithTimeout(opts.timeout),
		),
		Notifier: n,
		Render:   report.Render,
		Open:     openBrowser,
		Out:      out,
		Logger:   log,
		Metrics:  metrics,
	}
	if logFile != nil {
		deps.LogFile = logFile
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.historyDB != "" {
		mirror, err := storage.OpenSQLiteMirror(ctx, opts.historyDB, sessionID, showtimeID)
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer mirror.Close()
		deps.Mirror = mirror
		fmt.Fprintf(out, "Recording polls to %s as session %s\n", opts.historyDB, sessionID)
	}

	mon, err := monitor.New(monitor.Config{
		ShowtimeID: showtimeID,
		SessionID:  sessionID,
		Interval:   opts.interval,
		Layout:     venue.Layout,
		ReportPath: reportFile,
		OpenReport: opts.open,
	}, deps)
	if err != nil {
		return err
	}

	if opts.serve != "" {
		shutdown := serveReport(opts.serve, mon.Session().History, showtimeID, log)
		defer shutdown()
		fmt.Fprintf(out, "Serving live report on %s\n", opts.serve)
	}

	runErr := mon.Run(ctx)

	if ctx.Err() != nil {
		fmt.Fprintln(out, "\nMonitoring stopped by user")
	}
	if logFile != nil && metrics.Counter("log.writes") > 0 {
		fmt.Fprintf(out, "Change history saved to %s\n", logFile.Path())
	}
	writeSummary(out, history.Summarize(mon.Session().History.Records()), metrics.GetSnapshot())

	return runErr
}

// buildNotifier creates the configured notifiers. Throttling is opt-in so
// that every change is delivered by default.
func buildNotifier(opts *options, env config.Env, out io.Writer) (notifier.Notifier, error) {
	n, err := notifier.New(opts.notifiers, notifier.Config{
		TelegramToken:  env.TelegramToken,
		TelegramChatID: env.TelegramChatID,
		Out:            out,
	})
	if err != nil {
		return nil, err
	}
	if opts.notifyEvery > 0 {
		n = notifier.NewThrottled(n, opts.notifyEvery, opts.notifyBurst)
	}
	return n, nil
}

// reportPath resolves the report file and creates its directory
func reportPath(dir, showtimeID string) (string, error) {
	dir, err := storage.ExpandPath(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	path, err := filepath.Abs(report.Path(dir, showtimeID))
	if err != nil {
		return "", fmt.Errorf("resolving report path: %w", err)
	}
	return path, nil
}

// serveReport starts the report server in the background and returns a
// function that shuts it down
func serveReport(addr string, store *history.Store, showtimeID string, log *logger.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           report.NewServer(store, showtimeID).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Report server failed", logger.Fields{"addr": addr}, err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// openBrowser opens url with the platform's default handler
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
