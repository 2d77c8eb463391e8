package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/dispatch/models"
	"relay/pkg/document"
	domainerrors "relay/pkg/domain-errors"
)

type stubService struct {
	process     func(ctx context.Context, event *models.DomainEvent, send bool) (*models.Result, error)
	testTrigger func(ctx context.Context, templateKey, subscriberID, phone string, payload document.Document, transactionID, contentSid string, contentVariables map[string]string) (*models.TriggerResponse, error)
}

func (s *stubService) Process(ctx context.Context, event *models.DomainEvent, send bool) (*models.Result, error) {
	return s.process(ctx, event, send)
}

func (s *stubService) TestTrigger(ctx context.Context, templateKey, subscriberID, phone string, payload document.Document, transactionID, contentSid string, contentVariables map[string]string) (*models.TriggerResponse, error) {
	return s.testTrigger(ctx, templateKey, subscriberID, phone, payload, transactionID, contentSid, contentVariables)
}

func newTestRouter(svc Service) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	New(svc, logger, nil).Register(router)
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleDryRun(t *testing.T) {
	var gotSend bool
	svc := &stubService{
		process: func(ctx context.Context, event *models.DomainEvent, send bool) (*models.Result, error) {
			gotSend = send
			assert.Equal(t, "evt-1", event.EventID)
			return &models.Result{Valid: true, PreferenceAllowed: true}, nil
		},
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/dispatch/v1/_dryrun", DryRunRequest{
		Event: &models.DomainEvent{EventID: "evt-1", EventType: "DOMAIN_EVENT", EventName: "BILL_GENERATED", TenantID: "pb"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, gotSend, "send must default to false")

	var result models.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
}

func TestHandleDryRunRequiresEvent(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := postJSON(t, router, "/dispatch/v1/_dryrun", DryRunRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDryRunMapsPipelineErrors(t *testing.T) {
	svc := &stubService{
		process: func(ctx context.Context, event *models.DomainEvent, send bool) (*models.Result, error) {
			return nil, domainerrors.New(domainerrors.CodeBindingNotResolved, "no binding for event")
		},
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/dispatch/v1/_dryrun", DryRunRequest{
		Event: &models.DomainEvent{EventID: "evt-1"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "BINDING_NOT_RESOLVED")
}

func TestHandleTrigger(t *testing.T) {
	svc := &stubService{
		testTrigger: func(ctx context.Context, templateKey, subscriberID, phone string, payload document.Document, transactionID, contentSid string, contentVariables map[string]string) (*models.TriggerResponse, error) {
			assert.Equal(t, "smoke-template", templateKey)
			assert.Equal(t, "pb:ops-user", subscriberID)
			assert.Equal(t, "HX0123456789abcdef0123456789abcdef", contentSid)
			return &models.TriggerResponse{StatusCode: 201}, nil
		},
	}
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/dispatch/v1/_trigger", TriggerRequest{
		TemplateKey:  "smoke-template",
		SubscriberID: "pb:ops-user",
		ContentSid:   "HX0123456789abcdef0123456789abcdef",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response models.TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 201, response.StatusCode)
}

func TestHandleTriggerValidation(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := postJSON(t, router, "/dispatch/v1/_trigger", TriggerRequest{SubscriberID: "pb:ops-user"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/dispatch/v1/_trigger", TriggerRequest{TemplateKey: "smoke-template"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
