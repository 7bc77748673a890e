// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/dutyscrape/internal/browser"
	"github.com/law-makers/dutyscrape/internal/config"
	"github.com/law-makers/dutyscrape/internal/metrics"
	"github.com/law-makers/dutyscrape/internal/ratelimit"
	"github.com/law-makers/dutyscrape/internal/retry"
	"github.com/law-makers/dutyscrape/internal/store"
)

// Application holds the dependencies of one batch run and manages their lifecycle.
//
// It is created once per command invocation. Close must be called on every
// exit path; it releases the browser even when the batch failed early.
type Application struct {
	Config  *config.Config
	Logger  *zerolog.Logger
	RunID   string
	DB      *store.DB
	Metrics *metrics.Metrics
	Limiter *ratelimit.HostLimiter

	browserMu sync.Mutex
	browser   *browser.Session

	stopMetrics context.CancelFunc
	metricsDone chan struct{}
	startTime   time.Time
}

// SetupLogging configures the global logger from cfg and returns it
func SetupLogging(cfg *config.Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	switch cfg.LogLevel {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	var w io.Writer = out
	if !cfg.JSONLog {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

// New creates and initializes a new Application.
//
// It performs the following initialization steps:
//   - Tags the global logger with a fresh run id
//   - Opens the store and checks connectivity with bounded retries
//   - Creates the metrics registry and, if configured, its listener
//   - Creates the per-host navigation limiter
//
// The browser is started lazily by EnsureBrowser. If any step fails, the
// resources opened so far are released and an error is returned.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	runID := uuid.NewString()
	log.Logger = log.With().Str("run_id", runID).Logger()
	logger := log.Logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	db, err := store.Open(ctx, store.Options{
		Driver: cfg.DatabaseDriver,
		URL:    cfg.DatabaseURL,
		Retry:  retry.DefaultConfig(),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("driver", cfg.DatabaseDriver).
		Str("source", cfg.DatabaseURLSource).
		Msg("Store connected")

	a := &Application{
		Config:    cfg,
		Logger:    &logger,
		RunID:     runID,
		DB:        db,
		Metrics:   metrics.New(),
		Limiter:   ratelimit.NewHostLimiter(cfg.NavigationsPerSecond, cfg.NavigationBurst),
		startTime: time.Now(),
	}

	if cfg.MetricsAddr != "" {
		mctx, cancel := context.WithCancel(context.Background())
		a.stopMetrics = cancel
		a.metricsDone = make(chan struct{})
		go func() {
			defer close(a.metricsDone)
			if err := a.Metrics.Serve(mctx, cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics listener failed")
			}
		}()
	}

	logger.Debug().
		Float64("navigations_per_second", cfg.NavigationsPerSecond).
		Int("burst", cfg.NavigationBurst).
		Msg("Application initialized")
	return a, nil
}

// EnsureBrowser starts the browser session on first use and returns it
func (a *Application) EnsureBrowser(ctx context.Context) (*browser.Session, error) {
	if a == nil {
		return nil, fmt.Errorf("application is nil")
	}

	a.browserMu.Lock()
	defer a.browserMu.Unlock()

	if a.browser != nil {
		return a.browser, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := browser.Open(browser.Options{
		Headless:          a.Config.BrowserHeadless,
		ChromePath:        a.Config.ChromePath,
		UserAgent:         a.Config.UserAgent,
		Proxy:             a.Config.Proxy,
		NavigationTimeout: a.Config.NavigationTimeout,
		IdleConnections:   a.Config.IdleConnections,
		IdleQuiet:         a.Config.IdleQuiet,
		Limiter:           a.Limiter,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to start browser")
		return nil, err
	}

	a.browser = s
	return s, nil
}

// Close releases the browser, the metrics listener and the store.
// Errors are logged and do not prevent the remaining steps.
func (a *Application) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}

	a.browserMu.Lock()
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing browser")
		}
		a.browser = nil
	}
	a.browserMu.Unlock()

	if a.stopMetrics != nil {
		a.stopMetrics()
		select {
		case <-a.metricsDone:
		case <-ctx.Done():
		}
	}

	var err error
	if a.DB != nil {
		if err = a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
		}
	}

	a.Logger.Debug().Dur("uptime", time.Since(a.startTime)).Msg("Application shutdown complete")
	return err
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
