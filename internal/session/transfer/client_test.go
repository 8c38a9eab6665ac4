package transfer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilegate/internal/profile"
	"profilegate/pkg/sentinel"
)

func TestFetchReturnsRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/profile", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(profile.Record{SubjectID: "subject-1", Phone: "555-0101"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	record, err := client.Fetch(context.Background(), "token-123")

	require.NoError(t, err)
	assert.Equal(t, "subject-1", record.SubjectID)
	assert.Equal(t, "555-0101", record.Phone)
}

func TestFetchMapsMissingProfileToNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "profile not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Fetch(context.Background(), "token-123")

	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUpsertAcceptsCreatedAndOK(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusOK} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var patch profile.Patch
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
			require.NotNil(t, patch.Phone)

			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(profile.Record{SubjectID: "subject-1", Phone: *patch.Phone})
		}))

		client := NewClient(server.URL)
		record, err := client.Upsert(context.Background(), "token-123",
			profile.Patch{Phone: profile.StringPtr("555-0101")})

		require.NoError(t, err)
		assert.Equal(t, "555-0101", record.Phone)
		server.Close()
	}
}

func TestErrorEnvelopeSurfacesStatusAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired token"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Fetch(context.Background(), "bad-token")

	var tErr *Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusUnauthorized, tErr.Status)
	assert.Contains(t, tErr.Message, "invalid or expired token")
}

func TestVerifyEmailPostsToVerifyEndpoint(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	require.NoError(t, client.VerifyEmail(context.Background(), "token-123"))
	assert.Equal(t, "/profile/verify-email", path)
}
