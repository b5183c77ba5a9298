package interfaces

import (
	"context"

	"github.com/punchamoorthee/paywebhooks/internal/domain"
)

type WalletStore interface {
	GetWallet(ctx context.Context, id int64) (*domain.Wallet, error)
}

type WebhookStore interface {
	CreateWebhook(ctx context.Context, w domain.NewWebhook) (*domain.Webhook, error)
	GetWebhook(ctx context.Context, id int64) (*domain.Webhook, error)
	// ClaimWebhook moves id from PENDING to PROCESSING and reports whether
	// this caller won the transition.
	ClaimWebhook(ctx context.Context, id int64) (bool, error)
	// MarkWebhookFailed sets FAILED regardless of the current status.
	MarkWebhookFailed(ctx context.Context, id int64) error
	// ResetWebhook moves id back to PENDING if its status is one of from.
	ResetWebhook(ctx context.Context, id int64, from ...domain.WebhookStatus) (bool, error)
	ListWebhookIDsByStatus(ctx context.Context, status domain.WebhookStatus) ([]int64, error)
}

// LedgerTx is the set of writes that commit or roll back together when a
// webhook is reconciled.
type LedgerTx interface {
	// InsertNewTransactions skips rows whose (bank, reference) already
	// exists and returns only the rows actually inserted.
	InsertNewTransactions(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error)
	IncrementBalance(ctx context.Context, walletID, amountCents int64) error
	FinalizeWebhook(ctx context.Context, id int64, status domain.WebhookStatus, lineErrors []domain.LineError) (*domain.Webhook, error)
}

type LedgerStore interface {
	WalletStore
	WebhookStore
	SumForWallet(ctx context.Context, walletID int64) (int64, error)
	WithinTx(ctx context.Context, fn func(LedgerTx) error) error
}
