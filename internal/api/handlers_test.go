package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/punchamoorthee/paywebhooks/internal/apperr"
	"github.com/punchamoorthee/paywebhooks/internal/domain"
	"github.com/punchamoorthee/paywebhooks/internal/models"
	"github.com/punchamoorthee/paywebhooks/internal/service"
)

type stubService struct {
	created   service.CreateInput
	createErr error
	webhook   *domain.Webhook
	wallet    *service.WalletSummary
	ingestion service.IngestionState
	setTo     *bool
	err       error
}

func (s *stubService) Create(_ context.Context, in service.CreateInput) (*domain.Webhook, error) {
	s.created = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Webhook{ID: 11, Status: domain.StatusPending}, nil
}

func (s *stubService) GetWebhook(context.Context, int64) (*domain.Webhook, error) {
	return s.webhook, s.err
}

func (s *stubService) GetWallet(context.Context, int64) (*service.WalletSummary, error) {
	return s.wallet, s.err
}

func (s *stubService) IngestionStatus(context.Context) (service.IngestionState, error) {
	return s.ingestion, s.err
}

func (s *stubService) SetIngestion(_ context.Context, enabled bool) (service.IngestionState, error) {
	s.setTo = &enabled
	if s.err != nil {
		return service.IngestionState{}, s.err
	}
	if enabled {
		return service.IngestionState{Enabled: true, Enqueued: 3}, nil
	}
	return service.IngestionState{}, nil
}

func (s *stubService) Requeue(context.Context, int64) (*domain.Webhook, error) {
	return s.webhook, s.err
}

func newRouter(svc WebhookService) *mux.Router {
	r := mux.NewRouter()
	NewHandler(svc, zap.NewNop()).Register(r)
	return r
}

func do(t *testing.T, r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestCreateWebhookHandler(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pay/webhook", strings.NewReader("156,50//REF//20250615"))
	req.Header.Set("X-Wallet-ID", "7")
	req.Header.Set("X-Bank", "ACME")

	rec := do(t, newRouter(svc), req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/webhooks/11", rec.Header().Get("Location"))
	var body models.WebhookAccepted
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, models.WebhookAccepted{ID: 11, Status: domain.StatusPending}, body)
	assert.Equal(t, service.CreateInput{WalletID: "7", Bank: "ACME", RawPayload: "156,50//REF//20250615"}, svc.created)
}

func TestCreateWebhookHandlerRendersTaxonomy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   apperr.Code
	}{
		{
			"validation",
			apperr.Validation("Bad input", apperr.Detail{ReasonCode: apperr.ReasonInvalidProperty, Message: "must be one of: ACME, FOODICS", Source: "bank"}),
			http.StatusBadRequest, apperr.CodeBadRequest,
		},
		{"wallet missing", apperr.NotFound("Wallet with id 7 not found"), http.StatusNotFound, apperr.CodeNotFound},
		{"gate down", apperr.Unavailable("ingestion state unavailable", nil), http.StatusServiceUnavailable, apperr.CodeServiceUnavailable},
		{"enqueue failed", apperr.Internal("Failed to enqueue webhook processing", nil), http.StatusInternalServerError, apperr.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/pay/webhook", strings.NewReader("x"))
			rec := do(t, newRouter(&stubService{createErr: tc.err}), req)

			assert.Equal(t, tc.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestGetWebhookHandler(t *testing.T) {
	t.Parallel()

	svc := &stubService{webhook: &domain.Webhook{
		ID:               4,
		WalletID:         1,
		Bank:             "ACME",
		Status:           domain.StatusPartiallyProcessed,
		ProcessingErrors: []domain.LineError{{Line: 2, Raw: "bad", Error: "invalid format: expected 3 parts separated by //, got 1"}},
	}}
	rec := do(t, newRouter(svc), httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/4", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.Webhook
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, domain.StatusPartiallyProcessed, body.Status)
	require.Len(t, body.ProcessingErrors, 1)
	assert.Equal(t, 2, body.ProcessingErrors[0].Line)
}

func TestPathIDValidation(t *testing.T) {
	t.Parallel()

	rec := do(t, newRouter(&stubService{}), httptest.NewRequest(http.MethodGet, "/api/v1/wallets/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "id", body.Details[0].Source)
}

func TestGetWalletHandler(t *testing.T) {
	t.Parallel()

	svc := &stubService{wallet: &service.WalletSummary{
		Wallet:           &domain.Wallet{ID: 1, Name: "Main", BalanceCents: 15650},
		LedgerTotalCents: 15650,
	}}
	rec := do(t, newRouter(svc), httptest.NewRequest(http.MethodGet, "/api/v1/wallets/1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.Wallet
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(15650), body.BalanceCents)
	assert.Equal(t, int64(15650), body.LedgerTotalCents)
}

func TestIngestionHandlers(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		t.Parallel()
		svc := &stubService{ingestion: service.IngestionState{Enabled: true}}
		rec := do(t, newRouter(svc), httptest.NewRequest(http.MethodGet, "/api/v1/admin/ingestion", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"enabled":true}`, rec.Body.String())
	})

	t.Run("enable reports backlog", func(t *testing.T) {
		t.Parallel()
		svc := &stubService{}
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/ingestion", strings.NewReader(`{"enabled":true}`))
		rec := do(t, newRouter(svc), req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"enabled":true,"enqueued":3}`, rec.Body.String())
		require.NotNil(t, svc.setTo)
		assert.True(t, *svc.setTo)
	})

	t.Run("disable", func(t *testing.T) {
		t.Parallel()
		svc := &stubService{}
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/ingestion", strings.NewReader(`{"enabled":false}`))
		rec := do(t, newRouter(svc), req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"enabled":false}`, rec.Body.String())
	})

	t.Run("missing flag", func(t *testing.T) {
		t.Parallel()
		svc := &stubService{}
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/ingestion", strings.NewReader(`{}`))
		rec := do(t, newRouter(svc), req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, svc.setTo)
	})
}

func TestRequeueHandler(t *testing.T) {
	t.Parallel()

	svc := &stubService{webhook: &domain.Webhook{ID: 9, Status: domain.StatusPending}}
	rec := do(t, newRouter(svc), httptest.NewRequest(http.MethodPost, "/api/v1/admin/webhooks/9/requeue", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	svc = &stubService{err: apperr.Conflict("Webhook 9 is already PROCESSED")}
	rec = do(t, newRouter(svc), httptest.NewRequest(http.MethodPost, "/api/v1/admin/webhooks/9/requeue", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperr.CodeConflict, decodeError(t, rec).Code)
}
