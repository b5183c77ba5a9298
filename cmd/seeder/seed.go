package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type seedWallet struct {
	name          string
	accountNumber string
}

// Named wallets start at zero so their balance equals their ledger total.
var namedWallets = []seedWallet{
	{"John Doe", "SA6980000204608016212908"},
	{"Jane Smith", "SA6980000204608016211111"},
	{"Acme Corp", "SA6980000204608016213333"},
}

var seedColumns = []string{"name", "account_number", "balance_cents", "created_at", "updated_at"}

const (
	createSeedTable = `CREATE TEMP TABLE wallet_seed (
		name TEXT, account_number TEXT, balance_cents BIGINT, created_at TIMESTAMPTZ, updated_at TIMESTAMPTZ
	) ON COMMIT DROP`

	mergeSeedTable = `INSERT INTO wallets (name, account_number, balance_cents, created_at, updated_at)
		SELECT name, account_number, balance_cents, created_at, updated_at FROM wallet_seed
		ON CONFLICT (account_number) DO NOTHING`
)

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func seedRows(total int, now time.Time) [][]interface{} {
	rows := make([][]interface{}, 0, total)
	for i := 0; i < total; i++ {
		w := seedWallet{
			name:          fmt.Sprintf("Bench Wallet %d", i+1),
			accountNumber: fmt.Sprintf("SA00BENCH%015d", i+1),
		}
		if i < len(namedWallets) {
			w = namedWallets[i]
		}
		rows = append(rows, []interface{}{w.name, w.accountNumber, int64(0), now, now})
	}
	return rows
}

// seedWallets copies the wallet set into a staging table and merges it, so a
// rerun or a partially seeded table only gains the missing account numbers.
func seedWallets(ctx context.Context, db beginner, total int) (int64, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createSeedTable); err != nil {
		return 0, fmt.Errorf("staging table: %w", err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"wallet_seed"}, seedColumns, pgx.CopyFromRows(seedRows(total, time.Now()))); err != nil {
		return 0, fmt.Errorf("bulk copy failed: %w", err)
	}
	tag, err := tx.Exec(ctx, mergeSeedTable)
	if err != nil {
		return 0, fmt.Errorf("wallet merge failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("tx commit failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
