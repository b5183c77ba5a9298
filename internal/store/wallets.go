package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/paywebhooks/internal/domain"
)

// GetWallet retrieves a single wallet by ID.
func (s *Store) GetWallet(ctx context.Context, id int64) (*domain.Wallet, error) {
	var w domain.Wallet
	err := s.db.QueryRow(ctx,
		"SELECT id, name, account_number, balance_cents, created_at FROM wallets WHERE id = $1",
		id,
	).Scan(&w.ID, &w.Name, &w.AccountNumber, &w.BalanceCents, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("wallet query failed: %w", err)
	}
	return &w, nil
}
