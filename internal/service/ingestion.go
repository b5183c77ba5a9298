package service

import (
	"context"

	"go.uber.org/zap"
)

type IngestionState struct {
	Enabled bool
	// Enqueued counts the backlog queued when ingestion was switched on.
	Enqueued int
}

func (s *WebhookService) IngestionStatus(ctx context.Context) (IngestionState, error) {
	enabled, err := s.gate.IsEnabled(ctx)
	if err != nil {
		return IngestionState{}, err
	}
	return IngestionState{Enabled: enabled}, nil
}

// SetIngestion flips the gate. Enabling also queues every webhook that was
// stored while ingestion was off.
func (s *WebhookService) SetIngestion(ctx context.Context, enabled bool) (IngestionState, error) {
	if !enabled {
		if err := s.gate.Disable(ctx); err != nil {
			return IngestionState{}, err
		}
		s.logger.Info("ingestion disabled")
		return IngestionState{Enabled: false}, nil
	}

	if err := s.gate.Enable(ctx); err != nil {
		return IngestionState{}, err
	}
	n, err := s.EnqueuePendingWebhooks(ctx)
	if err != nil {
		return IngestionState{Enabled: true, Enqueued: n}, err
	}
	s.logger.Info("ingestion enabled", zap.Int("enqueued", n))
	return IngestionState{Enabled: true, Enqueued: n}, nil
}
