// Package app wires the admin front end together: configuration, logging,
// the session store, the remote API client, the views and the HTTP server.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/usradmin/internal/apiclient"
	"github.com/patric-chuzhbe/usradmin/internal/auth"
	"github.com/patric-chuzhbe/usradmin/internal/config"
	"github.com/patric-chuzhbe/usradmin/internal/db/jsondb"
	"github.com/patric-chuzhbe/usradmin/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usradmin/internal/db/postgresdb"
	"github.com/patric-chuzhbe/usradmin/internal/ipchecker"
	"github.com/patric-chuzhbe/usradmin/internal/logger"
	"github.com/patric-chuzhbe/usradmin/internal/metrics"
	"github.com/patric-chuzhbe/usradmin/internal/models"
	"github.com/patric-chuzhbe/usradmin/internal/notify"
	"github.com/patric-chuzhbe/usradmin/internal/router"
	"github.com/patric-chuzhbe/usradmin/internal/session"
	"github.com/patric-chuzhbe/usradmin/internal/views/loginview"
	"github.com/patric-chuzhbe/usradmin/internal/views/usersview"
)

const shutdownTimeout = 10 * time.Second

type sessionKeeper interface {
	GetSession(ctx context.Context, id string) (*models.SessionRecord, bool, error)
	SaveSession(ctx context.Context, record *models.SessionRecord) error
	DeleteSession(ctx context.Context, id string) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	sessionKeeper
	pinger
	Close() error
}

// App holds the configuration, the session store and the HTTP handler of the service.
type App struct {
	cfg         *config.Config
	db          storage
	httpHandler http.Handler
}

// New loads the configuration, initializes the logger, selects the session
// store and builds the router.
func New(opts ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(opts...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	sessionSigningKey, err := base64.URLEncoding.DecodeString(app.cfg.SessionSigningKey)
	if err != nil {
		return nil, fmt.Errorf("in internal/app/app.go/New(): error while `base64.URLEncoding.DecodeString()` calling: %w", err)
	}

	trustChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	appMetrics := metrics.New()
	notifier := notify.NewSessionNotifier()
	sessions := session.NewManager(app.db, session.WithIdleTimeout(app.cfg.SessionIdleTimeout))

	api := apiclient.New(
		app.cfg.APIBaseURL,
		notifier,
		apiclient.WithAPIKey(app.cfg.APIKey),
		apiclient.WithTokenSource(auth.TokenFromContext),
		apiclient.WithCallRecorder(appMetrics),
	)

	app.httpHandler = router.New(
		loginview.New(api, sessions, notifier, loginview.WithLoginRecorder(appMetrics)),
		usersview.NewController(api, notifier),
		sessions,
		auth.New(sessions, app.cfg.SessionCookieName, sessionSigningKey),
		app.db,
		router.WithMetrics(appMetrics.Handler(), trustChecker),
	)

	return app, nil
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts the server down and closes the store.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr, "APIBaseURL", a.cfg.APIBaseURL)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing the session store and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return a.db.Close()
		}

		return fmt.Errorf("server error: %w", err)
	}
}

// Close flushes the logger.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.SessionFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.SessionFileName)
	}

	return memorystorage.New()
}
