package main

import (
	"context"
	"flag"
	"log"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/punchamoorthee/paywebhooks/internal/config"
	"github.com/punchamoorthee/paywebhooks/internal/store"
)

func main() {
	total := flag.Int("wallets", 1000, "total wallets to seed, named wallets included")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := store.RunMigrations(cfg.DBSource); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DBSource)
	if err != nil {
		logger.Fatal("unable to connect to database", zap.Error(err))
	}
	defer conn.Close(ctx)

	inserted, err := seedWallets(ctx, conn, *total)
	if err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("wallets seeded", zap.Int64("inserted", inserted), zap.Int("requested", *total))
}
