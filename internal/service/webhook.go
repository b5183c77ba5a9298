package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/punchamoorthee/paywebhooks/internal/apperr"
	"github.com/punchamoorthee/paywebhooks/internal/domain"
	"github.com/punchamoorthee/paywebhooks/internal/interfaces"
	"github.com/punchamoorthee/paywebhooks/internal/parser"
	"github.com/punchamoorthee/paywebhooks/internal/store"
)

// WebhookService stores inbound bank notifications and reconciles them
// against the wallet ledger.
type WebhookService struct {
	store   interfaces.LedgerStore
	queue   interfaces.JobQueue
	gate    interfaces.IngestionGate
	parsers *parser.Registry
	logger  *zap.Logger
}

func NewWebhookService(
	s interfaces.LedgerStore,
	q interfaces.JobQueue,
	g interfaces.IngestionGate,
	parsers *parser.Registry,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{store: s, queue: q, gate: g, parsers: parsers, logger: logger}
}

// CreateInput is the inbound notification before validation. WalletID is
// the raw identifier as received.
type CreateInput struct {
	WalletID   string
	Bank       string
	RawPayload string
}

type validInput struct {
	walletID   int64
	bank       string
	rawPayload string
}

func (s *WebhookService) validate(in CreateInput) (validInput, error) {
	var (
		out     validInput
		details []apperr.Detail
	)

	walletID := strings.TrimSpace(in.WalletID)
	if walletID == "" {
		details = append(details, apperr.Detail{ReasonCode: apperr.ReasonMissingRequiredProperty, Message: "is missing", Source: "wallet_id"})
	} else if id, err := strconv.ParseInt(walletID, 10, 64); err != nil || id <= 0 {
		details = append(details, apperr.Detail{ReasonCode: apperr.ReasonInvalidProperty, Message: "must be an integer greater than 0", Source: "wallet_id"})
	} else {
		out.walletID = id
	}

	bank := strings.ToUpper(strings.TrimSpace(in.Bank))
	if bank == "" {
		details = append(details, apperr.Detail{ReasonCode: apperr.ReasonMissingRequiredProperty, Message: "is missing", Source: "bank"})
	} else if !s.parsers.Supports(bank) {
		details = append(details, apperr.Detail{
			ReasonCode: apperr.ReasonInvalidProperty,
			Message:    "must be one of: " + strings.Join(s.parsers.Banks(), ", "),
			Source:     "bank",
		})
	} else {
		out.bank = bank
	}

	if strings.TrimSpace(in.RawPayload) == "" {
		details = append(details, apperr.Detail{ReasonCode: apperr.ReasonMissingRequiredProperty, Message: "must be filled", Source: "raw_payload"})
	} else {
		out.rawPayload = in.RawPayload
	}

	if len(details) > 0 {
		return validInput{}, apperr.Validation("Bad input", details...)
	}
	return out, nil
}

// Create validates the notification, stores it as PENDING and queues it when
// the ingestion gate is enabled. The row is kept even if queueing fails; an
// operator requeue or the next bulk enqueue picks it up.
func (s *WebhookService) Create(ctx context.Context, in CreateInput) (*domain.Webhook, error) {
	v, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	wallet, err := s.store.GetWallet(ctx, v.walletID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("Wallet with id %d not found", v.walletID))
		}
		return nil, apperr.Internal("failed to load wallet", err)
	}

	webhook, err := s.store.CreateWebhook(ctx, domain.NewWebhook{
		WalletID:   wallet.ID,
		Bank:       v.bank,
		RawPayload: v.rawPayload,
	})
	if err != nil {
		return nil, apperr.Internal("failed to create webhook record", err)
	}
	log := s.logger.With(zap.Int64("webhook_id", webhook.ID), zap.String("bank", webhook.Bank))

	enabled, err := s.gate.IsEnabled(ctx)
	if err != nil {
		webhooksReceived.WithLabelValues(webhook.Bank, "false").Inc()
		log.Warn("webhook stored but ingestion gate unreadable", zap.Error(err))
		return nil, err
	}
	if !enabled {
		webhooksReceived.WithLabelValues(webhook.Bank, "false").Inc()
		log.Info("webhook stored, ingestion disabled")
		return webhook, nil
	}

	if err := s.queue.Enqueue(ctx, webhook.ID); err != nil {
		webhooksReceived.WithLabelValues(webhook.Bank, "false").Inc()
		log.Error("webhook stored but enqueue failed", zap.Error(err))
		return nil, apperr.Internal("Failed to enqueue webhook processing", err)
	}
	webhooksReceived.WithLabelValues(webhook.Bank, "true").Inc()
	log.Info("webhook stored and queued")
	return webhook, nil
}

func (s *WebhookService) GetWebhook(ctx context.Context, id int64) (*domain.Webhook, error) {
	w, err := s.store.GetWebhook(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("Webhook with id %d not found", id))
		}
		return nil, apperr.Internal("failed to load webhook", err)
	}
	return w, nil
}

// WalletSummary pairs the stored balance with the sum of booked transactions.
// The two are equal unless the ledger invariant has been broken.
type WalletSummary struct {
	Wallet           *domain.Wallet
	LedgerTotalCents int64
}

func (s *WebhookService) GetWallet(ctx context.Context, id int64) (*WalletSummary, error) {
	w, err := s.store.GetWallet(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("Wallet with id %d not found", id))
		}
		return nil, apperr.Internal("failed to load wallet", err)
	}
	total, err := s.store.SumForWallet(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to sum wallet ledger", err)
	}
	return &WalletSummary{Wallet: w, LedgerTotalCents: total}, nil
}
