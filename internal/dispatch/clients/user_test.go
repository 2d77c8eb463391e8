package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserClientPassesKnownUserIDThrough(t *testing.T) {
	client := NewUserClient("http://unreachable.invalid", "/user/_search", discardLogger())

	uuid, err := client.ResolveRecipient(context.Background(), "pb.amritsar", "CITIZEN", "known-uuid", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "known-uuid", uuid)
}

func TestUserClientResolvesByMobile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pb.amritsar", body["tenantId"])
		assert.Equal(t, "CITIZEN", body["userType"])
		assert.Equal(t, "9876543210", body["userName"])

		w.Write([]byte(`{"user": [{"uuid": "resolved-uuid", "userName": "9876543210"}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := NewUserClient(server.URL, "/user/_search", discardLogger())
	uuid, err := client.ResolveRecipient(context.Background(), "pb.amritsar", "CITIZEN", "", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "resolved-uuid", uuid)
}

func TestUserClientMapsEmployeeAudience(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "EMPLOYEE", body["userType"])
		w.Write([]byte(`{"user": [{"uuid": "emp-uuid"}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := NewUserClient(server.URL, "/user/_search", discardLogger())
	uuid, err := client.ResolveRecipient(context.Background(), "pb", "employee", "", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "emp-uuid", uuid)
}

func TestUserClientUnresolvableReturnsEmpty(t *testing.T) {
	t.Run("no mobile", func(t *testing.T) {
		client := NewUserClient("http://unreachable.invalid", "/user/_search", discardLogger())
		uuid, err := client.ResolveRecipient(context.Background(), "pb", "CITIZEN", "", "")
		require.NoError(t, err)
		assert.Empty(t, uuid)
	})

	t.Run("no match", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"user": []}`)) //nolint:errcheck
		}))
		defer server.Close()

		client := NewUserClient(server.URL, "/user/_search", discardLogger())
		uuid, err := client.ResolveRecipient(context.Background(), "pb", "CITIZEN", "", "9876543210")
		require.NoError(t, err)
		assert.Empty(t, uuid)
	})

	t.Run("directory error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewUserClient(server.URL, "/user/_search", discardLogger())
		uuid, err := client.ResolveRecipient(context.Background(), "pb", "CITIZEN", "", "9876543210")
		require.NoError(t, err)
		assert.Empty(t, uuid)
	})
}
