package bytewatt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anicoll/bytewatt-integration/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, baseURL string) *service {
	t.Helper()
	originalLogger := zap.L()
	zap.ReplaceGlobals(zaptest.NewLogger(t))
	t.Cleanup(func() {
		zap.ReplaceGlobals(originalLogger)
	})

	return New(&config.ByteWattConfig{
		Username: "user@example.com",
		Password: "hunter2",
	}, WithBaseURL(baseURL))
}

func TestAuthenticateStoresToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/Account/Login", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("authsignature"))
		assert.NotEmpty(t, r.URL.Query().Get("authtimestamp"))

		var body loginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body.Username)
		assert.Equal(t, "hunter2", body.Password)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"AccessToken": "abc123"},
		})
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	require.NoError(t, s.Authenticate(context.Background()))
	assert.Equal(t, "abc123", s.token)
}

func TestAuthenticateNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	err := s.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Empty(t, s.token)
}

func TestAuthenticateMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	err := s.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Empty(t, s.token)
}

func TestAuthenticateMissingTokenField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{}})
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	err := s.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Empty(t, s.token)
}

func TestAuthenticateNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	s := newTestService(t, server.URL)
	err := s.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Empty(t, s.token)
}

func TestAuthenticateDoesNotClobberTokenOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	s.token = "still-valid"
	err := s.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, "still-valid", s.token)
}

func TestTokenExpiry(t *testing.T) {
	// Unsigned-JWT shaped token with exp claim; ParseUnverified does not
	// care about the signature.
	_, ok := tokenExpiry("not-a-jwt")
	assert.False(t, ok)
}
