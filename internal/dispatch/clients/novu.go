// Package clients holds the outbound adapters for the dispatch pipeline:
// the delivery provider trigger, the user directory, the preference service,
// and the in-process binding resolver.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"relay/internal/dispatch/models"
	"relay/pkg/document"
	domainerrors "relay/pkg/domain-errors"
)

const defaultHTTPTimeout = 10 * time.Second

// NovuClient triggers notification workflows on a Novu-compatible API.
type NovuClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NovuOption configures the NovuClient.
type NovuOption func(*NovuClient)

// WithNovuHTTPClient sets a custom HTTP client (for testing).
func WithNovuHTTPClient(client *http.Client) NovuOption {
	return func(c *NovuClient) {
		c.httpClient = client
	}
}

// NewNovuClient creates a trigger client for the given endpoint.
func NewNovuClient(baseURL, apiKey string, logger *slog.Logger, opts ...NovuOption) *NovuClient {
	c := &NovuClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trigger posts a workflow trigger request. Any transport or provider error
// maps to NB_NOVU_TRIGGER_FAILED; the caller treats it as fatal for this
// attempt and relies on redelivery.
func (c *NovuClient) Trigger(ctx context.Context, templateKey, subscriberID, phone string,
	payload document.Document, transactionID string, overrides document.Document) (*models.TriggerResponse, error) {

	to := map[string]any{"subscriberId": subscriberID}
	if phone != "" {
		to["phone"] = phone
	}
	request := map[string]any{
		"name":          templateKey,
		"to":            to,
		"payload":       payload,
		"transactionId": transactionID,
	}
	if len(overrides) > 0 {
		request["overrides"] = overrides
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTriggerFailed, "failed to marshal trigger request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/events/trigger", bytes.NewReader(body))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTriggerFailed, "failed to create trigger request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "provider trigger failed",
			"template_key", templateKey,
			"subscriber_id", subscriberID,
			"error", err,
		)
		return nil, domainerrors.Wrap(err, domainerrors.CodeTriggerFailed, "failed triggering provider event")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.ErrorContext(ctx, "provider trigger returned non-success",
			"template_key", templateKey,
			"status_code", resp.StatusCode,
		)
		return nil, domainerrors.New(domainerrors.CodeTriggerFailed,
			fmt.Sprintf("provider trigger returned status %d", resp.StatusCode))
	}

	var response document.Document
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		// A 2xx with an unreadable body still counts as triggered.
		response = nil
	}
	return &models.TriggerResponse{StatusCode: resp.StatusCode, Response: response}, nil
}
