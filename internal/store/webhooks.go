package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/paywebhooks/internal/domain"
)

const webhookColumns = "id, wallet_id, bank, raw_payload, status, processing_errors, created_at, updated_at"

func scanWebhook(row pgx.Row) (*domain.Webhook, error) {
	var (
		w      domain.Webhook
		status string
	)
	if err := row.Scan(&w.ID, &w.WalletID, &w.Bank, &w.RawPayload, &status, &w.ProcessingErrors, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Status = domain.WebhookStatus(status)
	if w.ProcessingErrors == nil {
		w.ProcessingErrors = []domain.LineError{}
	}
	return &w, nil
}

// CreateWebhook stores the raw notification as PENDING.
func (s *Store) CreateWebhook(ctx context.Context, nw domain.NewWebhook) (*domain.Webhook, error) {
	w, err := scanWebhook(s.db.QueryRow(ctx,
		"INSERT INTO webhooks (wallet_id, bank, raw_payload, status) VALUES ($1, $2, $3, $4) RETURNING "+webhookColumns,
		nw.WalletID, nw.Bank, nw.RawPayload, string(domain.StatusPending),
	))
	if err != nil {
		return nil, fmt.Errorf("webhook insert failed: %w", err)
	}
	return w, nil
}

func (s *Store) GetWebhook(ctx context.Context, id int64) (*domain.Webhook, error) {
	w, err := scanWebhook(s.db.QueryRow(ctx, "SELECT "+webhookColumns+" FROM webhooks WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("webhook query failed: %w", err)
	}
	return w, nil
}

// ClaimWebhook is a single conditional update; only one caller can see a
// row affected for a given PENDING webhook.
func (s *Store) ClaimWebhook(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx,
		"UPDATE webhooks SET status = $1, updated_at = now() WHERE id = $2 AND status = $3",
		string(domain.StatusProcessing), id, string(domain.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("webhook claim failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkWebhookFailed(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx,
		"UPDATE webhooks SET status = $1, updated_at = now() WHERE id = $2",
		string(domain.StatusFailed), id,
	)
	if err != nil {
		return fmt.Errorf("webhook fail update failed: %w", err)
	}
	return nil
}

func (s *Store) ResetWebhook(ctx context.Context, id int64, from ...domain.WebhookStatus) (bool, error) {
	statuses := make([]string, len(from))
	for i, st := range from {
		statuses[i] = string(st)
	}
	tag, err := s.db.Exec(ctx,
		"UPDATE webhooks SET status = $1, updated_at = now() WHERE id = $2 AND status = ANY($3)",
		string(domain.StatusPending), id, statuses,
	)
	if err != nil {
		return false, fmt.Errorf("webhook reset failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListWebhookIDsByStatus(ctx context.Context, status domain.WebhookStatus) ([]int64, error) {
	rows, err := s.db.Query(ctx, "SELECT id FROM webhooks WHERE status = $1 ORDER BY id", string(status))
	if err != nil {
		return nil, fmt.Errorf("webhook list failed: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("webhook list scan failed: %w", err)
	}
	return ids, nil
}

// FinalizeWebhook records the terminal status and the line errors.
func (s *Store) FinalizeWebhook(ctx context.Context, id int64, status domain.WebhookStatus, lineErrors []domain.LineError) (*domain.Webhook, error) {
	if lineErrors == nil {
		lineErrors = []domain.LineError{}
	}
	w, err := scanWebhook(s.db.QueryRow(ctx,
		"UPDATE webhooks SET status = $1, processing_errors = $2, updated_at = now() WHERE id = $3 RETURNING "+webhookColumns,
		string(status), lineErrors, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("webhook finalize failed: %w", err)
	}
	return w, nil
}
