// Package cli provides the shared initialization used by cmd/tally:
// logging, env loading, configuration, and wiring the session, API
// client, cache and coordinator together.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/api"
	"tally/internal/config"
	"tally/internal/log"
	"tally/internal/service"
	"tally/internal/session"
	"tally/internal/storage"
	"tally/internal/store"
)

// SetupLogger initializes structured logging with default settings and
// installs it as the process default.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are
// ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it. Returns
// the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// App is the assembled client: one session, one API client, one cache,
// one coordinator.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Session  *session.Manager
	API      *api.Client
	Expenses *service.Expenses

	// Snapshots is nil when the offline snapshot could not be opened.
	Snapshots *storage.SnapshotRepository

	// Events is nil when no broker is configured. It both publishes
	// this client's mutations and feeds the follow command.
	Events *amqp.Client

	closers []func() error
}

// tokenProxy breaks the construction cycle between the API client
// (which needs a token source) and the session manager (which needs
// the API client for login).
type tokenProxy struct {
	manager *session.Manager
}

func (p *tokenProxy) Token() (string, bool) {
	if p.manager == nil {
		return "", false
	}
	return p.manager.Token()
}

// BuildApp wires the full client from configuration. Optional pieces
// (offline snapshot, mutation events) degrade to absent with a warning
// rather than failing startup.
func BuildApp(cfg *config.Config, logger *log.Logger) *App {
	app := &App{Config: cfg, Logger: logger}

	proxy := &tokenProxy{}
	app.API = api.New(cfg.APIBaseURL, proxy, logger,
		api.WithTimeout(cfg.APITimeout),
		api.WithRetries(uint64(cfg.APIRetries)),
		api.WithUnauthorizedHook(func() {
			if proxy.manager != nil {
				proxy.manager.Teardown()
			}
		}))

	creds := session.NewCredStore(cfg.CredentialsFile, logger)
	app.Session = session.NewManager(app.API, creds, session.Config{
		TokenTTL:  cfg.TokenTTL,
		AutoLogin: cfg.AutoLogin,
	}, logger)
	proxy.manager = app.Session

	var opts []service.Option
	if cfg.SQLiteDBPath != "" {
		repo, err := storage.NewSnapshotRepository(cfg.SQLiteDBPath, logger)
		if err != nil {
			logger.Warn("offline snapshot disabled",
				log.FieldError, err.Error(), log.FieldPath, cfg.SQLiteDBPath)
		} else {
			app.Snapshots = repo
			opts = append(opts, service.WithSnapshots(repo))
			app.closers = append(app.closers, repo.Close)
		}
	}
	if cfg.AMQPURL != "" {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("mutation events disabled", log.FieldError, err.Error())
		} else {
			app.Events = events
			opts = append(opts, service.WithEvents(events))
			app.closers = append(app.closers, events.Close)
		}
	}

	app.Expenses = service.New(app.API, store.New(), logger, opts...)

	// Ending the session, for any reason, empties the cache.
	app.Session.OnTeardown(app.Expenses.Reset)

	app.Session.Restore()
	return app
}

// Close releases the optional resources the app acquired.
func (a *App) Close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.Logger.Warn("close failed", log.FieldError, err.Error())
		}
	}
}
