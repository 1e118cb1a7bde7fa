package bytewatt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPowerData = map[string]any{
	"soc":       55,
	"pmeter_l1": -120.5,
	"pmeter_l2": 80,
	"pmeter_l3": 0,
	"pbat":      -50,
	"ppv1":      100,
	"ppv2":      0,
	"ppv3":      0,
	"ppv4":      0,
	"preal_l1":  10,
	"preal_l2":  20,
	"preal_l3":  0,
}

func powerDataBody() []byte {
	body, _ := json.Marshal(map[string]any{"data": testPowerData})
	return body
}

func TestGetBatteryDataHappyPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/Account/Login":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"AccessToken": "abc123"}})
		case "/api/ESS/GetLastPowerDataBySN":
			assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
			assert.Equal(t, "All", r.URL.Query().Get("sys_sn"))
			assert.Equal(t, "true", r.URL.Query().Get("noLoading"))
			assert.NotEmpty(t, r.Header.Get("authtimestamp"))
			assert.NotEmpty(t, r.Header.Get("authsignature"))
			_, _ = w.Write(powerDataBody())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	snapshot, err := s.GetBatteryData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 55.0, snapshot["soc"])
	assert.Equal(t, -120.5, snapshot["pmeter_l1"])
	assert.Len(t, snapshot, len(testPowerData))
}

func TestGetBatteryDataReauthenticatesOn401(t *testing.T) {
	var logins, fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/Account/Login":
			token := "stale"
			if logins.Add(1) > 1 {
				token = "fresh"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"AccessToken": token}})
		case "/api/ESS/GetLastPowerDataBySN":
			if fetches.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			// The retried GET must carry the re-issued token.
			assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
			_, _ = w.Write(powerDataBody())
		}
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	start := time.Now()
	snapshot, err := s.GetBatteryData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 55.0, snapshot["soc"])
	assert.Equal(t, int32(2), logins.Load(), "exactly one re-authentication after the initial login")
	assert.Equal(t, int32(2), fetches.Load())
	assert.Less(t, time.Since(start), retryDelay, "401 retry must be immediate, not backed off")
}

func TestGetBatteryDataTransientExhaustsRetries(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/Account/Login":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"AccessToken": "abc123"}})
		case "/api/ESS/GetLastPowerDataBySN":
			fetches.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]int{"code": 9007})
		}
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	start := time.Now()
	_, err := s.GetBatteryData(context.Background())
	assert.ErrorIs(t, err, ErrUpdateFailed)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, int32(3), fetches.Load(), "three attempts, never a fourth")
	// Two backoff windows between three attempts.
	assert.GreaterOrEqual(t, time.Since(start), 2*retryDelay)
}

func TestGetBatteryDataRecoversAfterTransient(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/Account/Login":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"AccessToken": "abc123"}})
		case "/api/ESS/GetLastPowerDataBySN":
			if fetches.Add(1) == 1 {
				_ = json.NewEncoder(w).Encode(map[string]int{"code": 9007})
				return
			}
			_, _ = w.Write(powerDataBody())
		}
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	snapshot, err := s.GetBatteryData(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot, len(testPowerData))
	assert.Equal(t, int32(2), fetches.Load())
}

func TestGetBatteryDataEmptyDataFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/Account/Login":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"AccessToken": "abc123"}})
		case "/api/ESS/GetLastPowerDataBySN":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
		}
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	snapshot, err := s.GetBatteryData(context.Background())
	assert.ErrorIs(t, err, ErrUpdateFailed)
	assert.ErrorIs(t, err, ErrUnexpectedFormat)
	assert.Nil(t, snapshot, "an empty data object must never surface as a snapshot")
}

func TestGetBatteryDataAuthFailureSurfacesWithoutFetch(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/Account/Login":
			w.WriteHeader(http.StatusUnauthorized)
		case "/api/ESS/GetLastPowerDataBySN":
			fetches.Add(1)
		}
	}))
	defer server.Close()

	s := newTestService(t, server.URL)
	_, err := s.GetBatteryData(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Zero(t, fetches.Load(), "no telemetry call without a token")
}

func TestParseSnapshotCoercesNumericStrings(t *testing.T) {
	snapshot, err := parseSnapshot(json.RawMessage(`{"soc":"55.5","sys_sn":"AL1234","pbat":-50}`))
	require.NoError(t, err)
	assert.Equal(t, 55.5, snapshot["soc"])
	assert.Equal(t, -50.0, snapshot["pbat"])
	_, exists := snapshot["sys_sn"]
	assert.False(t, exists, "non-numeric fields are dropped")
}

func TestParseSnapshotRejectsNonObject(t *testing.T) {
	_, err := parseSnapshot(json.RawMessage(`"oops"`))
	assert.ErrorIs(t, err, ErrUnexpectedFormat)

	_, err = parseSnapshot(nil)
	assert.ErrorIs(t, err, ErrUnexpectedFormat)
}
