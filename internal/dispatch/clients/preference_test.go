package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consentResponse(status string) string {
	return fmt.Sprintf(`{
		"preferences": [
			{"payload": {"consent": {"WHATSAPP": {"status": %q}}}}
		]
	}`, status)
}

func newPreferenceServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *PreferenceClient) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewPreferenceClient(server.URL, "/preference/v1/_search", true,
		"NOTIFICATION_CONSENT", "WHATSAPP", discardLogger())
	return server, client
}

func TestPreferenceClientGrantedConsent(t *testing.T) {
	_, client := newPreferenceServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		criteria := body["criteria"].(map[string]any)
		assert.Equal(t, "user-1", criteria["userId"])
		assert.Equal(t, "pb.amritsar", criteria["tenantId"])
		assert.Equal(t, "NOTIFICATION_CONSENT", criteria["preferenceCode"])

		w.Write([]byte(consentResponse("GRANTED"))) //nolint:errcheck
	})

	allowed, err := client.IsChannelAllowed(context.Background(), "pb.amritsar", "user-1", "9876543210")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestPreferenceClientRevokedConsent(t *testing.T) {
	_, client := newPreferenceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(consentResponse("REVOKED"))) //nolint:errcheck
	})

	allowed, err := client.IsChannelAllowed(context.Background(), "pb.amritsar", "user-1", "9876543210")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPreferenceClientNoPreferenceRecordDenies(t *testing.T) {
	_, client := newPreferenceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"preferences": []}`)) //nolint:errcheck
	})

	allowed, err := client.IsChannelAllowed(context.Background(), "pb.amritsar", "user-1", "9876543210")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPreferenceClientLookupFailureDenies(t *testing.T) {
	_, client := newPreferenceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	allowed, err := client.IsChannelAllowed(context.Background(), "pb.amritsar", "user-1", "9876543210")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPreferenceClientDisabledAllowsEverything(t *testing.T) {
	client := NewPreferenceClient("http://unreachable.invalid", "/preference/v1/_search", false,
		"NOTIFICATION_CONSENT", "WHATSAPP", discardLogger())

	allowed, err := client.IsChannelAllowed(context.Background(), "pb.amritsar", "user-1", "9876543210")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestPreferenceClientEmptyUserDenies(t *testing.T) {
	_, client := newPreferenceServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no call expected without a user id")
	})

	allowed, err := client.IsChannelAllowed(context.Background(), "pb.amritsar", "", "9876543210")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPreferenceClientCircuitRecoversAfterSuccesses(t *testing.T) {
	failing := true
	_, client := newPreferenceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(consentResponse("GRANTED"))) //nolint:errcheck
	})

	for i := 0; i < 5; i++ {
		allowed, err := client.IsChannelAllowed(context.Background(), "pb", "user-1", "")
		require.NoError(t, err)
		assert.False(t, allowed)
	}
	assert.True(t, client.breaker.IsOpen())

	// The gate keeps probing while open, so recovery needs no external reset.
	failing = false
	for i := 0; i < 3; i++ {
		allowed, err := client.IsChannelAllowed(context.Background(), "pb", "user-1", "")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	assert.False(t, client.breaker.IsOpen())
}
