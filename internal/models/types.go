package models

import (
	"time"

	"github.com/punchamoorthee/paywebhooks/internal/apperr"
	"github.com/punchamoorthee/paywebhooks/internal/domain"
)

// WebhookAccepted is returned when a notification has been stored.
type WebhookAccepted struct {
	ID     int64                `json:"id"`
	Status domain.WebhookStatus `json:"status"`
}

// Webhook is the operator view of a stored notification.
type Webhook struct {
	ID               int64                `json:"id"`
	WalletID         int64                `json:"wallet_id"`
	Bank             string               `json:"bank"`
	Status           domain.WebhookStatus `json:"status"`
	ProcessingErrors []domain.LineError   `json:"processing_errors"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func WebhookFrom(w *domain.Webhook) Webhook {
	errs := w.ProcessingErrors
	if errs == nil {
		errs = []domain.LineError{}
	}
	return Webhook{
		ID:               w.ID,
		WalletID:         w.WalletID,
		Bank:             w.Bank,
		Status:           w.Status,
		ProcessingErrors: errs,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

// Wallet carries the stored balance next to the booked ledger total.
type Wallet struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	AccountNumber    string `json:"account_number"`
	BalanceCents     int64  `json:"balance_cents"`
	LedgerTotalCents int64  `json:"ledger_total_cents"`
}

// IngestionRequest toggles the ingestion gate. Enabled is required.
type IngestionRequest struct {
	Enabled *bool `json:"enabled"`
}

type IngestionResponse struct {
	Enabled  bool `json:"enabled"`
	Enqueued *int `json:"enqueued,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    apperr.Code     `json:"code"`
	Message string          `json:"message"`
	Details []apperr.Detail `json:"details,omitempty"`
}
