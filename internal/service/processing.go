package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/punchamoorthee/paywebhooks/internal/apperr"
	"github.com/punchamoorthee/paywebhooks/internal/domain"
	"github.com/punchamoorthee/paywebhooks/internal/interfaces"
	"github.com/punchamoorthee/paywebhooks/internal/parser"
	"github.com/punchamoorthee/paywebhooks/internal/store"
)

const (
	failFallbackTimeout = 5 * time.Second
	// processTimeout bounds a claimed webhook once it no longer follows the
	// caller's cancellation.
	processTimeout = 30 * time.Second
)

var errBalanceOverflow = errors.New("sum of inserted amounts overflows int64")

// ProcessResult is the outcome of one Process call. When AlreadyProcessing is
// set another worker owns the webhook and Webhook is nil.
type ProcessResult struct {
	Webhook           *domain.Webhook
	AlreadyProcessing bool
	Inserted          int
	Skipped           int
}

// Process claims the webhook, parses its payload and books the new
// transactions. Inserting transactions, moving the wallet balance and
// recording the final status commit together. Any failure after the claim
// leaves the webhook FAILED.
//
// Once claimed, the work is detached from ctx cancellation so a shutdown
// lets it finish instead of failing a webhook nobody can reclaim.
func (s *WebhookService) Process(ctx context.Context, webhookID int64) (res *ProcessResult, err error) {
	log := s.logger.With(zap.Int64("webhook_id", webhookID))

	claimed, err := s.store.ClaimWebhook(ctx, webhookID)
	if err != nil {
		return nil, apperr.Internal("failed to claim webhook", err)
	}
	if !claimed {
		claimsLost.Inc()
		log.Info("webhook already claimed, skipping")
		return &ProcessResult{AlreadyProcessing: true}, nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), processTimeout)
	defer cancel()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic while processing webhook: %v", r)
		}
		if err != nil {
			s.markFailed(ctx, webhookID, log)
			webhooksProcessed.WithLabelValues(string(domain.StatusFailed)).Inc()
			log.Error("webhook processing failed", zap.Error(err))
			var classified *apperr.Error
			if !errors.As(err, &classified) {
				err = apperr.Internal("failed to process webhook", err)
			}
		}
		processingDuration.Observe(time.Since(started).Seconds())
	}()

	res, err = s.reconcile(ctx, webhookID)
	if err != nil {
		return nil, err
	}

	webhooksProcessed.WithLabelValues(string(res.Webhook.Status)).Inc()
	log.Info("webhook processed",
		zap.String("status", string(res.Webhook.Status)),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("line_errors", len(res.Webhook.ProcessingErrors)))
	return res, nil
}

func (s *WebhookService) reconcile(ctx context.Context, webhookID int64) (*ProcessResult, error) {
	webhook, err := s.store.GetWebhook(ctx, webhookID)
	if err != nil {
		return nil, fmt.Errorf("load webhook: %w", err)
	}
	p, err := s.parsers.For(webhook.Bank)
	if err != nil {
		unsupported := apperr.Unprocessable(fmt.Sprintf("Bank %s is not supported", webhook.Bank))
		unsupported.Err = err
		return nil, unsupported
	}
	parsed := p.Parse(webhook.RawPayload)
	status, lineErrors := finalStatus(parsed)

	res := &ProcessResult{}
	err = s.store.WithinTx(ctx, func(tx interfaces.LedgerTx) error {
		if len(parsed.Transactions) > 0 {
			inserted, err := tx.InsertNewTransactions(ctx, toLedgerRows(webhook, parsed.Transactions))
			if err != nil {
				return fmt.Errorf("insert transactions: %w", err)
			}
			res.Inserted = len(inserted)
			res.Skipped = len(parsed.Transactions) - len(inserted)

			if len(inserted) > 0 {
				total, err := sumCents(inserted)
				if err != nil {
					return err
				}
				if err := tx.IncrementBalance(ctx, webhook.WalletID, total); err != nil {
					return fmt.Errorf("increment balance: %w", err)
				}
			}
		}

		final, err := tx.FinalizeWebhook(ctx, webhook.ID, status, lineErrors)
		if err != nil {
			return fmt.Errorf("finalize webhook: %w", err)
		}
		res.Webhook = final
		return nil
	})
	if err != nil {
		return nil, err
	}

	transactionsInserted.WithLabelValues(webhook.Bank).Add(float64(res.Inserted))
	transactionsSkipped.WithLabelValues(webhook.Bank).Add(float64(res.Skipped))
	return res, nil
}

// sumCents totals amounts and reports an error instead of wrapping around.
func sumCents(txs []domain.Transaction) (int64, error) {
	var total int64
	for _, t := range txs {
		if (t.AmountCents > 0 && total > math.MaxInt64-t.AmountCents) ||
			(t.AmountCents < 0 && total < math.MinInt64-t.AmountCents) {
			return 0, errBalanceOverflow
		}
		total += t.AmountCents
	}
	return total, nil
}

func finalStatus(r parser.Result) (domain.WebhookStatus, []domain.LineError) {
	switch r.Outcome() {
	case parser.OutcomeSuccess:
		return domain.StatusProcessed, []domain.LineError{}
	case parser.OutcomePartialSuccess:
		return domain.StatusPartiallyProcessed, r.Errors
	default:
		return domain.StatusFailed, r.Errors
	}
}

func toLedgerRows(w *domain.Webhook, parsed []domain.ParsedTransaction) []domain.Transaction {
	rows := make([]domain.Transaction, 0, len(parsed))
	for _, p := range parsed {
		rows = append(rows, domain.Transaction{
			WalletID:        w.WalletID,
			WebhookID:       w.ID,
			Bank:            w.Bank,
			Reference:       p.Reference,
			AmountCents:     p.AmountCents,
			TransactionDate: p.TransactionDate,
			Metadata:        p.Metadata,
		})
	}
	return rows
}

// markFailed is best effort and outlives a cancelled caller context.
func (s *WebhookService) markFailed(ctx context.Context, webhookID int64, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failFallbackTimeout)
	defer cancel()
	if err := s.store.MarkWebhookFailed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook FAILED", zap.Error(err))
	}
}

// EnqueuePendingWebhooks queues every PENDING webhook and returns how many
// were queued. It stops at the first enqueue failure.
func (s *WebhookService) EnqueuePendingWebhooks(ctx context.Context) (int, error) {
	ids, err := s.store.ListWebhookIDsByStatus(ctx, domain.StatusPending)
	if err != nil {
		return 0, apperr.Internal("failed to list pending webhooks", err)
	}
	for i, id := range ids {
		if err := s.queue.Enqueue(ctx, id); err != nil {
			s.logger.Error("bulk enqueue stopped",
				zap.Int64("webhook_id", id), zap.Int("enqueued", i), zap.Int("pending", len(ids)), zap.Error(err))
			return i, apperr.Internal("Failed to enqueue webhook processing", err)
		}
	}
	s.logger.Info("pending webhooks enqueued", zap.Int("count", len(ids)))
	return len(ids), nil
}

// Requeue hands a webhook back to the workers. PROCESSING and FAILED rows are
// reset to PENDING first; rows that already reconciled are left alone.
func (s *WebhookService) Requeue(ctx context.Context, webhookID int64) (*domain.Webhook, error) {
	webhook, err := s.GetWebhook(ctx, webhookID)
	if err != nil {
		return nil, err
	}

	switch webhook.Status {
	case domain.StatusPending:
	case domain.StatusProcessing, domain.StatusFailed:
		ok, err := s.store.ResetWebhook(ctx, webhookID, domain.StatusProcessing, domain.StatusFailed)
		if err != nil {
			return nil, apperr.Internal("failed to reset webhook", err)
		}
		if !ok {
			return nil, apperr.Conflict(fmt.Sprintf("Webhook %d changed status concurrently", webhookID))
		}
	default:
		return nil, apperr.Conflict(fmt.Sprintf("Webhook %d is already %s", webhookID, webhook.Status))
	}

	if err := s.queue.Enqueue(ctx, webhookID); err != nil {
		return nil, apperr.Internal("Failed to enqueue webhook processing", err)
	}
	s.logger.Info("webhook requeued", zap.Int64("webhook_id", webhookID), zap.String("previous_status", string(webhook.Status)))

	webhook, err = s.store.GetWebhook(ctx, webhookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("Webhook with id %d not found", webhookID))
		}
		return nil, apperr.Internal("failed to load webhook", err)
	}
	return webhook, nil
}
