package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ringwatch/internal/alerting"
	"ringwatch/internal/api"
	"ringwatch/internal/catalog"
	"ringwatch/internal/config"
	"ringwatch/internal/extract"
	"ringwatch/internal/fetcher"
	"ringwatch/internal/history"
	"ringwatch/internal/scheduler"
	"ringwatch/internal/storage"
	"ringwatch/internal/sweep"
	"ringwatch/internal/tracking"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newRunner() *sweep.Runner {
	page := fetcher.NewPage(fetcher.PageOptions{
		Timeout:   a.Config.Fetch.RequestTimeout,
		UserAgent: a.Config.Fetch.UserAgent,
	}, a.Logger)

	extractor := extract.New(
		decimal.NewFromFloat(a.Config.Extract.MinPlausible),
		decimal.NewFromFloat(a.Config.Extract.MaxPlausible),
	)

	return sweep.New(page, extractor, a.Config.Sweep.Pace, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled {
		cfg := a.Config.Alerting.Discord
		return alerting.NewDiscordNotifier(cfg.WebhookURL, cfg.RequestTimeout, a.Logger)
	}
	return alerting.NewNoopNotifier(a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("database unreachable: %w", err)
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running tracking service: the scheduler plus the HTTP
// control API.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	var hist history.Store = history.NewMemory()
	var alertLog storage.AlertLog
	if store != nil {
		hist = store
		alertLog = store
	} else {
		a.Logger.Warn().Msg("database.dsn not configured; observations kept in memory only")
	}

	sched, err := scheduler.New(
		catalog.Default(),
		a.newRunner(),
		hist,
		alertLog,
		a.newNotifier(),
		tracking.NewFileStore(a.Config.Tracking.StatePath),
		a.Logger,
	)
	if err != nil {
		return err
	}
	defer sched.Shutdown()

	server := api.NewServer(sched, a.Logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(a.Config.Server.Addr())
	}()

	a.Logger.Info().Str("addr", a.Config.Server.Addr()).Msg("tracking service started")

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("http server terminated with error")
			return err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("http server shutdown failed")
	}

	a.Logger.Info().Msg("tracking service stopped")
	return nil
}

// ExportOptions hold parameters for exporting historical observations.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
