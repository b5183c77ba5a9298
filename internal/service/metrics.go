package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_received_total",
		Help: "Webhooks stored, labeled by bank and whether they were queued",
	}, []string{"bank", "queued"})

	webhooksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_processed_total",
		Help: "Webhooks that reached a terminal status, labeled by status",
	}, []string{"status"})

	claimsLost = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_claims_lost_total",
		Help: "Process calls that found the webhook already claimed",
	})

	transactionsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_inserted_total",
		Help: "Transactions booked to the ledger",
	}, []string{"bank"})

	transactionsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_skipped_total",
		Help: "Parsed transactions skipped as duplicates of an existing (bank, reference)",
	}, []string{"bank"})

	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "webhook_processing_duration_seconds",
		Help:    "Time from claim to terminal status",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)
