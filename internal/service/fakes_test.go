package service

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/punchamoorthee/paywebhooks/internal/domain"
	"github.com/punchamoorthee/paywebhooks/internal/interfaces"
	"github.com/punchamoorthee/paywebhooks/internal/store"
)

type ledgerKey struct{ bank, reference string }

// memStore is an in-memory LedgerStore. WithinTx holds the lock for the whole
// callback and restores a snapshot if the callback fails.
type memStore struct {
	mu           sync.Mutex
	wallets      map[int64]*domain.Wallet
	webhooks     map[int64]*domain.Webhook
	transactions []domain.Transaction
	refs         map[ledgerKey]bool
	nextWebhook  int64
	nextTx       int64

	createErr   error
	finalizeErr error
	markErr     error
	markCalls   int
}

var _ interfaces.LedgerStore = (*memStore)(nil)

func newMemStore(wallets ...domain.Wallet) *memStore {
	s := &memStore{
		wallets:  make(map[int64]*domain.Wallet),
		webhooks: make(map[int64]*domain.Webhook),
		refs:     make(map[ledgerKey]bool),
	}
	for _, w := range wallets {
		s.wallets[w.ID] = &w
	}
	return s
}

func (s *memStore) GetWallet(_ context.Context, id int64) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *memStore) CreateWebhook(_ context.Context, nw domain.NewWebhook) (*domain.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextWebhook++
	now := time.Now().UTC()
	w := &domain.Webhook{
		ID:               s.nextWebhook,
		WalletID:         nw.WalletID,
		Bank:             nw.Bank,
		RawPayload:       nw.RawPayload,
		Status:           domain.StatusPending,
		ProcessingErrors: []domain.LineError{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.webhooks[w.ID] = w
	cp := *w
	return &cp, nil
}

func (s *memStore) GetWebhook(_ context.Context, id int64) (*domain.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.webhooks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *memStore) ClaimWebhook(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.webhooks[id]
	if !ok || w.Status != domain.StatusPending {
		return false, nil
	}
	w.Status = domain.StatusProcessing
	return true, nil
}

func (s *memStore) MarkWebhookFailed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls++
	if s.markErr != nil {
		return s.markErr
	}
	if w, ok := s.webhooks[id]; ok {
		w.Status = domain.StatusFailed
	}
	return nil
}

func (s *memStore) ResetWebhook(_ context.Context, id int64, from ...domain.WebhookStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.webhooks[id]
	if !ok || !slices.Contains(from, w.Status) {
		return false, nil
	}
	w.Status = domain.StatusPending
	return true, nil
}

func (s *memStore) ListWebhookIDsByStatus(_ context.Context, status domain.WebhookStatus) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, w := range s.webhooks {
		if w.Status == status {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *memStore) SumForWallet(_ context.Context, walletID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, t := range s.transactions {
		if t.WalletID == walletID {
			total += t.AmountCents
		}
	}
	return total, nil
}

func (s *memStore) WithinTx(_ context.Context, fn func(interfaces.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	walletsSnap := make(map[int64]domain.Wallet, len(s.wallets))
	for id, w := range s.wallets {
		walletsSnap[id] = *w
	}
	webhooksSnap := make(map[int64]domain.Webhook, len(s.webhooks))
	for id, w := range s.webhooks {
		webhooksSnap[id] = *w
	}
	txLen := len(s.transactions)
	refsSnap := maps.Clone(s.refs)
	nextTx := s.nextTx

	if err := fn(&memTx{s: s}); err != nil {
		for id, w := range walletsSnap {
			*s.wallets[id] = w
		}
		for id, w := range webhooksSnap {
			*s.webhooks[id] = w
		}
		s.transactions = s.transactions[:txLen]
		s.refs = refsSnap
		s.nextTx = nextTx
		return err
	}
	return nil
}

func (s *memStore) balance(walletID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[walletID].BalanceCents
}

func (s *memStore) transactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

// memTx runs with memStore.mu held.
type memTx struct{ s *memStore }

func (t *memTx) InsertNewTransactions(_ context.Context, txs []domain.Transaction) ([]domain.Transaction, error) {
	inserted := []domain.Transaction{}
	for _, tx := range txs {
		k := ledgerKey{tx.Bank, tx.Reference}
		if t.s.refs[k] {
			continue
		}
		t.s.refs[k] = true
		t.s.nextTx++
		tx.ID = t.s.nextTx
		tx.CreatedAt = time.Now().UTC()
		t.s.transactions = append(t.s.transactions, tx)
		inserted = append(inserted, tx)
	}
	return inserted, nil
}

func (t *memTx) IncrementBalance(_ context.Context, walletID, amountCents int64) error {
	w, ok := t.s.wallets[walletID]
	if !ok {
		return store.ErrNotFound
	}
	w.BalanceCents += amountCents
	return nil
}

func (t *memTx) FinalizeWebhook(_ context.Context, id int64, status domain.WebhookStatus, lineErrors []domain.LineError) (*domain.Webhook, error) {
	if t.s.finalizeErr != nil {
		return nil, t.s.finalizeErr
	}
	w, ok := t.s.webhooks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	w.Status = status
	w.ProcessingErrors = lineErrors
	w.UpdatedAt = time.Now().UTC()
	cp := *w
	return &cp, nil
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (q *recordingQueue) Enqueue(_ context.Context, webhookID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, webhookID)
	return nil
}

func (q *recordingQueue) enqueued() []int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.ids)
}

type fakeGate struct {
	mu      sync.Mutex
	enabled bool
	err     error
}

func (g *fakeGate) IsEnabled(context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled, g.err
}

func (g *fakeGate) Enable(context.Context) error  { return g.set(true) }
func (g *fakeGate) Disable(context.Context) error { return g.set(false) }

func (g *fakeGate) set(v bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.enabled = v
	return nil
}
