package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/punchamoorthee/paywebhooks/internal/api"
	"github.com/punchamoorthee/paywebhooks/internal/config"
	"github.com/punchamoorthee/paywebhooks/internal/ingestion"
	"github.com/punchamoorthee/paywebhooks/internal/parser"
	"github.com/punchamoorthee/paywebhooks/internal/queue"
	"github.com/punchamoorthee/paywebhooks/internal/service"
	"github.com/punchamoorthee/paywebhooks/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := store.RunMigrations(cfg.DBSource); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	ledgerStore, err := store.NewStore(ctx, cfg.DBSource)
	if err != nil {
		logger.Fatal("unable to connect to database", zap.Error(err))
	}
	defer ledgerStore.Close()

	redisClient := ingestion.NewClient(cfg.RedisAddrs, cfg.RedisPassword, cfg.RedisCluster)
	defer redisClient.Close()

	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer producer.Close()

	svc := service.NewWebhookService(
		ledgerStore,
		producer,
		ingestion.NewGate(redisClient, logger),
		parser.Default(),
		logger,
	)
	handler := api.NewHandler(svc, logger)

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", handler.HealthCheckHandler)
	handler.Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
