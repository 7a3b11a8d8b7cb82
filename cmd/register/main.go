// Command register provisions an account directly against the storage
// backend, without going through the HTTP API. Useful for seeding the
// first accounts of a fresh deployment.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/avolkhin/roost/internal/cli"
	"github.com/avolkhin/roost/internal/logging"
	"github.com/avolkhin/roost/internal/server/accounts"
	"github.com/avolkhin/roost/internal/server/config"
	"github.com/avolkhin/roost/internal/server/store/postgres"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := postgres.Open(cfg.DatabaseDSN, cfg.DBPoolSize)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, db); err != nil {
		log.Fatalf("%v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	svc := accounts.NewService(postgres.NewStore(db, rdb, cfg.ServerName), logger, cfg)

	app := cli.NewApp(svc, os.Stdin, os.Stdout)
	if err := app.Register(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
