package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xpresspost/rateshop/internal/server"
	"github.com/xpresspost/rateshop/modules/rating/infrastructure/persistence"
	"github.com/xpresspost/rateshop/pkg/composables"
	"github.com/xpresspost/rateshop/pkg/configuration"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		panic(err)
	}

	// Fail fast when the reference tables drifted from the expected shape.
	if err := validateSchemas(ctx, pool); err != nil {
		panic(err)
	}

	srv, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Pool:          pool,
	})
	if err != nil {
		panic(err)
	}

	logger.WithField("address", conf.SocketAddress).Info("starting server")
	if err := srv.Start(conf.SocketAddress); err != nil {
		panic(err)
	}
}

func validateSchemas(ctx context.Context, pool *pgxpool.Pool) error {
	ctx = composables.WithPool(ctx, pool)
	if err := persistence.NewReferenceRepository().ValidateSchema(ctx); err != nil {
		return err
	}
	return persistence.NewRateRepository().ValidateSchema(ctx)
}
