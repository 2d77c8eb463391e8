package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"relay/pkg/document"
)

// UserClient resolves recipients against the external user directory.
type UserClient struct {
	host       string
	searchPath string
	httpClient *http.Client
	logger     *slog.Logger
}

// UserOption configures the UserClient.
type UserOption func(*UserClient)

// WithUserHTTPClient sets a custom HTTP client (for testing).
func WithUserHTTPClient(client *http.Client) UserOption {
	return func(c *UserClient) {
		c.httpClient = client
	}
}

// NewUserClient creates a recipient resolver against the user directory.
func NewUserClient(host, searchPath string, logger *slog.Logger, opts ...UserOption) *UserClient {
	c := &UserClient{
		host:       host,
		searchPath: searchPath,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveRecipient returns the stable user uuid for the recipient hints. An
// already-known userID passes through without a network call. Lookup failure
// is reported as an empty uuid, never an error; the orchestrator decides
// fatality.
func (c *UserClient) ResolveRecipient(ctx context.Context, tenantID, audience, userID, mobile string) (string, error) {
	if userID != "" {
		return userID, nil
	}
	if mobile == "" {
		return "", nil
	}

	payload := map[string]any{
		"RequestInfo": map[string]any{},
		"tenantId":    tenantID,
		"userType":    toUserType(audience),
		"userName":    mobile,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+c.searchPath, bytes.NewReader(body))
	if err != nil {
		return "", nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "user uuid resolve failed",
			"tenant_id", tenantID,
			"audience", audience,
			"error", err,
		)
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil
	}

	var searchResponse struct {
		Users []document.Document `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResponse); err != nil {
		c.logger.WarnContext(ctx, "user search response unreadable", "error", err)
		return "", nil
	}
	if len(searchResponse.Users) == 0 {
		return "", nil
	}
	uuid, _ := searchResponse.Users[0].String("uuid")
	return uuid, nil
}

func toUserType(audience string) string {
	if strings.EqualFold(audience, "EMPLOYEE") {
		return "EMPLOYEE"
	}
	return "CITIZEN"
}
