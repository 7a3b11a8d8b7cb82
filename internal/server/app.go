// Package server initializes and runs the homeserver: it loads the
// configuration, opens the storage backends, applies schema migrations,
// wires the account service into the HTTP API and handles graceful
// shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/avolkhin/roost/internal/logging"
	"github.com/avolkhin/roost/internal/server/accounts"
	"github.com/avolkhin/roost/internal/server/config"
	"github.com/avolkhin/roost/internal/server/httpapi"
	"github.com/avolkhin/roost/internal/server/store/postgres"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	httpServer *httpapi.Server
	close      func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := postgres.Open(cfg.DatabaseDSN, cfg.DBPoolSize)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	st := postgres.NewStore(db, rdb, cfg.ServerName)
	svc := accounts.NewService(st, logger, cfg)
	srv := httpapi.NewServer(cfg, logger, svc, st)

	closeFn := func() error {
		rdb.Close()
		return db.Close()
	}

	return &App{config: cfg, logger: logger, httpServer: srv, close: closeFn}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "server_name", app.config.ServerName)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
