package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/punchamoorthee/paywebhooks/internal/apperr"
	"github.com/punchamoorthee/paywebhooks/internal/domain"
	"github.com/punchamoorthee/paywebhooks/internal/models"
	"github.com/punchamoorthee/paywebhooks/internal/service"
)

const maxPayloadBytes = 10 << 20

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// WebhookService is what the handlers need from the service layer.
type WebhookService interface {
	Create(ctx context.Context, in service.CreateInput) (*domain.Webhook, error)
	GetWebhook(ctx context.Context, id int64) (*domain.Webhook, error)
	GetWallet(ctx context.Context, id int64) (*service.WalletSummary, error)
	IngestionStatus(ctx context.Context) (service.IngestionState, error)
	SetIngestion(ctx context.Context, enabled bool) (service.IngestionState, error)
	Requeue(ctx context.Context, id int64) (*domain.Webhook, error)
}

type Handler struct {
	svc    WebhookService
	logger *zap.Logger
}

func NewHandler(svc WebhookService, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the API under /api/v1.
func (h *Handler) Register(r *mux.Router) {
	r.Use(instrument)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/pay/webhook", h.CreateWebhookHandler).Methods(http.MethodPost)
	v1.HandleFunc("/webhooks/{id}", h.GetWebhookHandler).Methods(http.MethodGet)
	v1.HandleFunc("/wallets/{id}", h.GetWalletHandler).Methods(http.MethodGet)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/ingestion", h.GetIngestionHandler).Methods(http.MethodGet)
	admin.HandleFunc("/ingestion", h.SetIngestionHandler).Methods(http.MethodPatch)
	admin.HandleFunc("/webhooks/{id}/requeue", h.RequeueHandler).Methods(http.MethodPost)
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateWebhookHandler takes the wallet and bank from headers and the
// statement as the raw body.
func (h *Handler) CreateWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondWithError(w, apperr.Validation("Payload too large", apperr.Detail{
				ReasonCode: apperr.ReasonInvalidProperty,
				Message:    "must be at most " + strconv.Itoa(maxPayloadBytes) + " bytes",
				Source:     "raw_payload",
			}))
			return
		}
		h.respondWithError(w, apperr.Validation("Unreadable request body"))
		return
	}

	webhook, err := h.svc.Create(r.Context(), service.CreateInput{
		WalletID:   r.Header.Get("X-Wallet-ID"),
		Bank:       r.Header.Get("X-Bank"),
		RawPayload: string(body),
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/webhooks/"+strconv.FormatInt(webhook.ID, 10))
	respondWithJSON(w, http.StatusCreated, models.WebhookAccepted{ID: webhook.ID, Status: webhook.Status})
}

func (h *Handler) GetWebhookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	webhook, err := h.svc.GetWebhook(r.Context(), id)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.WebhookFrom(webhook))
}

func (h *Handler) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	sum, err := h.svc.GetWallet(r.Context(), id)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.Wallet{
		ID:               sum.Wallet.ID,
		Name:             sum.Wallet.Name,
		AccountNumber:    sum.Wallet.AccountNumber,
		BalanceCents:     sum.Wallet.BalanceCents,
		LedgerTotalCents: sum.LedgerTotalCents,
	})
}

func (h *Handler) GetIngestionHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.IngestionStatus(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.IngestionResponse{Enabled: st.Enabled})
}

func (h *Handler) SetIngestionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.IngestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, apperr.Validation("Malformed JSON body"))
		return
	}
	if req.Enabled == nil {
		h.respondWithError(w, apperr.Validation("Bad input", apperr.Detail{
			ReasonCode: apperr.ReasonMissingRequiredProperty,
			Message:    "is missing",
			Source:     "enabled",
		}))
		return
	}

	st, err := h.svc.SetIngestion(r.Context(), *req.Enabled)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	resp := models.IngestionResponse{Enabled: st.Enabled}
	if st.Enabled {
		resp.Enqueued = &st.Enqueued
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) RequeueHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	webhook, err := h.svc.Requeue(r.Context(), id)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, models.WebhookFrom(webhook))
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Bad input", apperr.Detail{
			ReasonCode: apperr.ReasonInvalidProperty,
			Message:    "must be an integer greater than 0",
			Source:     "id",
		})
	}
	return id, nil
}

// statusRecorder captures the status code for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument labels metrics with the route template so ids do not explode
// label cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	})
}

func (h *Handler) respondWithError(w http.ResponseWriter, err error) {
	e := apperr.As(err)
	if e.Code == apperr.CodeInternal || e.Code == apperr.CodeServiceUnavailable {
		h.logger.Error("request failed", zap.String("code", string(e.Code)), zap.Error(err))
	}
	respondWithJSON(w, e.HTTPStatus(), models.ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
