package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/punchamoorthee/paywebhooks/internal/domain"
)

// Postgres caps a statement at 65535 parameters.
const insertChunkSize = 1000

const transactionInsertColumns = 7

// InsertNewTransactions bulk-inserts with ON CONFLICT (bank, reference) DO
// NOTHING. Only rows that were actually written come back, with their IDs.
func (s *Store) InsertNewTransactions(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error) {
	inserted := make([]domain.Transaction, 0, len(txs))
	for start := 0; start < len(txs); start += insertChunkSize {
		end := min(start+insertChunkSize, len(txs))
		chunk, err := s.insertChunk(ctx, txs[start:end])
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, chunk...)
	}
	return inserted, nil
}

type insertKey struct {
	bank      string
	reference string
}

func (s *Store) insertChunk(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO transactions (wallet_id, webhook_id, bank, reference, amount_cents, transaction_date, metadata) VALUES ")
	args := make([]any, 0, len(txs)*transactionInsertColumns)
	pending := make(map[insertKey]domain.Transaction, len(txs))

	for i, t := range txs {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * transactionInsertColumns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7)

		metadata := t.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		args = append(args, t.WalletID, t.WebhookID, t.Bank, t.Reference, t.AmountCents, t.TransactionDate, metadata)

		// First occurrence wins, matching what the database keeps.
		key := insertKey{t.Bank, t.Reference}
		if _, dup := pending[key]; !dup {
			pending[key] = t
		}
	}
	sb.WriteString(" ON CONFLICT (bank, reference) DO NOTHING RETURNING id, bank, reference")

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("transaction insert failed: %w", err)
	}
	defer rows.Close()

	inserted := make([]domain.Transaction, 0, len(txs))
	for rows.Next() {
		var (
			id  int64
			key insertKey
		)
		if err := rows.Scan(&id, &key.bank, &key.reference); err != nil {
			return nil, fmt.Errorf("transaction insert scan failed: %w", err)
		}
		t := pending[key]
		t.ID = id
		inserted = append(inserted, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transaction insert failed: %w", err)
	}
	return inserted, nil
}

// IncrementBalance adds amountCents relative to the stored value so that
// concurrent increments on one wallet commute.
func (s *Store) IncrementBalance(ctx context.Context, walletID, amountCents int64) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE wallets SET balance_cents = balance_cents + $1, updated_at = now() WHERE id = $2",
		amountCents, walletID,
	)
	if err != nil {
		return fmt.Errorf("balance increment failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SumForWallet totals every booked transaction of a wallet.
func (s *Store) SumForWallet(ctx context.Context, walletID int64) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0)::bigint FROM transactions WHERE wallet_id = $1",
		walletID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ledger sum failed: %w", err)
	}
	return total, nil
}
