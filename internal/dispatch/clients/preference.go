package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"relay/pkg/document"
	"relay/pkg/platform/circuit"
)

// PreferenceClient checks channel consent against the external preference
// service. The policy is fail-closed: only an explicit GRANTED consent for
// the channel yields true; every error path yields false.
type PreferenceClient struct {
	host           string
	checkPath      string
	enabled        bool
	preferenceCode string
	channel        string
	breaker        *circuit.Breaker
	httpClient     *http.Client
	logger         *slog.Logger
}

// PreferenceOption configures the PreferenceClient.
type PreferenceOption func(*PreferenceClient)

// WithPreferenceHTTPClient sets a custom HTTP client (for testing).
func WithPreferenceHTTPClient(client *http.Client) PreferenceOption {
	return func(c *PreferenceClient) {
		c.httpClient = client
	}
}

// NewPreferenceClient creates a consent gate for the given channel.
func NewPreferenceClient(host, checkPath string, enabled bool, preferenceCode, channel string,
	logger *slog.Logger, opts ...PreferenceOption) *PreferenceClient {
	c := &PreferenceClient{
		host:           host,
		checkPath:      checkPath,
		enabled:        enabled,
		preferenceCode: preferenceCode,
		channel:        channel,
		breaker:        circuit.New("preference-check"),
		httpClient:     &http.Client{Timeout: defaultHTTPTimeout},
		logger:         logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsChannelAllowed reports whether dispatch on the channel is consented.
// Disabled feature allows everything; an open circuit denies without calling
// out.
func (c *PreferenceClient) IsChannelAllowed(ctx context.Context, tenantID, userID, mobile string) (bool, error) {
	if !c.enabled {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}
	if c.breaker.IsOpen() {
		c.logger.WarnContext(ctx, "preference circuit open, denying",
			"tenant_id", tenantID,
			"user_id", userID,
		)
		// Probe with a real call so the circuit can close again.
	}

	allowed := c.check(ctx, tenantID, userID)
	return allowed, nil
}

func (c *PreferenceClient) check(ctx context.Context, tenantID, userID string) bool {
	payload := map[string]any{
		"requestInfo": map[string]any{},
		"criteria": map[string]any{
			"userId":         userID,
			"tenantId":       tenantID,
			"preferenceCode": c.preferenceCode,
			"limit":          1,
			"offset":         0,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+c.checkPath, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx, tenantID, userID, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.recordFailure(ctx, tenantID, userID, nil)
		return false
	}
	c.breaker.RecordSuccess()

	var searchResponse struct {
		Preferences []document.Document `json:"preferences"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResponse); err != nil {
		return false
	}
	if len(searchResponse.Preferences) == 0 {
		return false
	}

	prefPayload, ok := searchResponse.Preferences[0].Child("payload")
	if !ok {
		return false
	}
	consent, ok := prefPayload.Child("consent")
	if !ok {
		return false
	}
	channelConsent, ok := consent.Child(c.channel)
	if !ok {
		return false
	}
	status, _ := channelConsent.String("status")
	return strings.EqualFold(status, "GRANTED")
}

func (c *PreferenceClient) recordFailure(ctx context.Context, tenantID, userID string, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.ErrorContext(ctx, "preference circuit opened",
			"tenant_id", tenantID,
			"user_id", userID,
			"error", err,
		)
	}
}
