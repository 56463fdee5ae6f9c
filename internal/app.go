// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	router "papertrade/internal/api"
	"papertrade/internal/api/handler"
	"papertrade/internal/config"
	"papertrade/internal/events"
	"papertrade/internal/quote"
	"papertrade/internal/repository"
	"papertrade/internal/repository/sqlrepo"
	"papertrade/internal/screener"
	"papertrade/internal/service"
	"papertrade/internal/session"
	"papertrade/internal/util"
	"papertrade/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	UserRepository        repository.UserRepository
	TransactionRepository repository.TransactionRepository

	// Collaborators
	Quotes    *quote.Client
	Publisher events.Publisher
	Sessions  *session.Manager
	Screener  *screener.Screener

	screenerCache *screener.Cache

	// Services
	LedgerService service.LedgerService
	AuthService   service.AuthService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database and apply the schema
	database, err := db.Open(ctx, app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.", "driver", app.Config.DB.Driver)

	// 4. Initialize Repositories
	app.UserRepository = sqlrepo.NewUserRepository()
	app.TransactionRepository = sqlrepo.NewTransactionRepository()
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize external collaborators
	app.Quotes = quote.NewClient(cfg.Quote.BaseURL, cfg.Quote.APIKey, cfg.Quote.Timeout)
	app.Publisher = app.newPublisher()
	store, err := app.newSessionStore(ctx)
	if err != nil {
		return err
	}
	app.Sessions = session.NewManager(cfg.Session.Secret, cfg.Session.TTL, store)
	if err := app.newScreener(); err != nil {
		return err
	}

	// 6. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.LedgerService = service.NewLedgerService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.UserRepository,
		app.TransactionRepository,
		app.Quotes,
		app.Publisher,
		app.Logger,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.AuthService = service.NewAuthService(
		app.DB,
		app.DB,
		app.UserRepository,
		cfg.StartingCash,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	app.HTTPHandler = router.NewRouter(router.Handlers{
		Auth:     handler.NewAuthHandler(app.AuthService, app.Sessions, app.Logger),
		Ledger:   handler.NewLedgerHandler(app.LedgerService, app.Logger),
		Market:   handler.NewMarketHandler(app.Screener, app.Logger),
		Sessions: app.Sessions,
	}, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) newPublisher() events.Publisher {
	if len(app.Config.Kafka.Brokers) == 0 {
		app.Logger.Info("Trade events disabled, no KAFKA_BROKERS configured.")
		return events.NopPublisher{}
	}
	writer := events.NewKafkaWriter(app.Config.Kafka.Brokers, app.Config.Kafka.Topic)
	app.Logger.Info("Trade events enabled.", "topic", app.Config.Kafka.Topic)
	return events.NewKafkaPublisher(writer, app.Logger)
}

func (app *Application) newSessionStore(ctx context.Context) (session.Store, error) {
	if app.Config.Redis.Addr == "" {
		app.Logger.Info("Sessions kept in memory, no REDIS_ADDR configured.")
		return session.NewMemoryStore(), nil
	}

	app.Redis = redis.NewClient(&redis.Options{
		Addr:     app.Config.Redis.Addr,
		Password: app.Config.Redis.Password,
		DB:       app.Config.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.Redis.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", app.Config.Redis.Addr, err)
	}
	app.Logger.Info("Redis session store connected.", "addr", app.Config.Redis.Addr)
	return session.NewRedisStore(app.Redis), nil
}

func (app *Application) newScreener() error {
	cfg := app.Config.Screener
	universe := screener.DefaultUniverse()
	if cfg.UniverseFile != "" {
		loaded, err := screener.LoadUniverseFile(cfg.UniverseFile)
		if err != nil {
			return fmt.Errorf("failed to load screener universe: %w", err)
		}
		universe = loaded
	}

	cache, err := screener.NewCache(16, cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("failed to create screener cache: %w", err)
	}
	app.screenerCache = cache
	app.Screener = screener.New(screener.Config{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Top:     cfg.Top,
	}, universe, cache, app.Logger)
	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	var errs []error

	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Logger.Error("Failed to close trade event publisher", "error", err)
			errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
		}
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis client", "error", err)
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	if app.screenerCache != nil {
		app.screenerCache.Close()
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		} else {
			app.Logger.Info("Database connection closed.")
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
