// Package ingestion holds the process-wide switch that decides whether stored
// webhooks are queued for processing. When disabled, webhooks are still
// received and stored; processing waits until the gate is enabled again.
package ingestion

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/punchamoorthee/paywebhooks/internal/apperr"
	"github.com/punchamoorthee/paywebhooks/internal/interfaces"
)

const Key = "pay:ingestion:enabled"

// Gate reads the flag on every call; nothing is cached in process so that
// all workers observe a toggle on their next check.
type Gate struct {
	client redis.UniversalClient
	logger *zap.Logger
}

var _ interfaces.IngestionGate = (*Gate)(nil)

func NewGate(client redis.UniversalClient, logger *zap.Logger) *Gate {
	return &Gate{client: client, logger: logger}
}

// NewClient builds a single-node or cluster client.
func NewClient(addrs []string, password string, useCluster bool) redis.UniversalClient {
	if useCluster && len(addrs) > 1 {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    addrs,
			Password: password,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:     addrs[0],
		Password: password,
		DB:       0,
	})
}

// IsEnabled treats an absent key as enabled.
func (g *Gate) IsEnabled(ctx context.Context) (bool, error) {
	val, err := g.client.Get(ctx, Key).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		g.logger.Warn("ingestion flag read failed", zap.Error(err))
		return false, apperr.Unavailable("ingestion flag store unavailable", err)
	}
	return val == "true", nil
}

func (g *Gate) Enable(ctx context.Context) error {
	return g.set(ctx, "true")
}

func (g *Gate) Disable(ctx context.Context) error {
	return g.set(ctx, "false")
}

func (g *Gate) set(ctx context.Context, val string) error {
	if err := g.client.Set(ctx, Key, val, 0).Err(); err != nil {
		g.logger.Warn("ingestion flag write failed", zap.String("value", val), zap.Error(err))
		return apperr.Unavailable("ingestion flag store unavailable", err)
	}
	g.logger.Info("ingestion flag updated", zap.String("value", val))
	return nil
}
