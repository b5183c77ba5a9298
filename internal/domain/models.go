package domain

import (
	"time"
)

// WebhookStatus is the lifecycle state of a stored bank notification.
type WebhookStatus string

const (
	StatusPending            WebhookStatus = "PENDING"
	StatusProcessing         WebhookStatus = "PROCESSING"
	StatusProcessed          WebhookStatus = "PROCESSED"
	StatusPartiallyProcessed WebhookStatus = "PARTIALLY_PROCESSED"
	StatusFailed             WebhookStatus = "FAILED"
)

// Wallet holds a balance in minor units. The balance only moves through
// relative increments driven by newly inserted transactions.
type Wallet struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
	BalanceCents  int64     `json:"balance_cents"`
	CreatedAt     time.Time `json:"created_at"`
}

// LineError describes one payload line the parser could not read.
type LineError struct {
	Line  int    `json:"line"`
	Raw   string `json:"raw"`
	Error string `json:"error"`
}

// Webhook is the raw notification as received from the bank.
type Webhook struct {
	ID               int64         `json:"id"`
	WalletID         int64         `json:"wallet_id"`
	Bank             string        `json:"bank"`
	RawPayload       string        `json:"raw_payload"`
	Status           WebhookStatus `json:"status"`
	ProcessingErrors []LineError   `json:"processing_errors"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewWebhook is the input for storing an inbound notification.
type NewWebhook struct {
	WalletID   int64
	Bank       string
	RawPayload string
}

// ParsedTransaction is one line of a bank statement after parsing.
type ParsedTransaction struct {
	Reference       string
	AmountCents     int64
	TransactionDate time.Time
	Metadata        map[string]string
}

// Transaction is a booked ledger row. (Bank, Reference) is globally unique.
type Transaction struct {
	ID              int64             `json:"id"`
	WalletID        int64             `json:"wallet_id"`
	WebhookID       int64             `json:"webhook_id"`
	Bank            string            `json:"bank"`
	Reference       string            `json:"reference"`
	AmountCents     int64             `json:"amount_cents"`
	TransactionDate time.Time         `json:"transaction_date"`
	Metadata        map[string]string `json:"metadata"`
	CreatedAt       time.Time         `json:"created_at"`
}
