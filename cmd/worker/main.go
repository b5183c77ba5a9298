// Command worker consumes webhook processing jobs and reconciles them
// against the ledger.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

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

	handle := func(ctx context.Context, job queue.Job) error {
		jl := logger.With(zap.Int64("webhook_id", job.WebhookID), zap.String("job_id", job.JobID))
		res, err := svc.Process(ctx, job.WebhookID)
		switch {
		case err != nil:
			return err
		case res.AlreadyProcessing:
			jl.Info("webhook already processing or processed")
		default:
			jl.Info("webhook processed", zap.String("status", string(res.Webhook.Status)))
		}
		return nil
	}

	logger.Info("worker starting",
		zap.Int("concurrency", cfg.WorkerConcurrency),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group_id", cfg.KafkaGroupID))

	var wg sync.WaitGroup
	for i := range cfg.WorkerConcurrency {
		consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger.With(zap.Int("consumer", i)))
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer consumer.Close()
			if err := consumer.Run(ctx, handle); err != nil {
				logger.Error("consumer stopped", zap.Int("consumer", i), zap.Error(err))
				stop()
			}
		}()
	}

	wg.Wait()
	logger.Info("worker stopped")
}
