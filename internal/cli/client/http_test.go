package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempConfig redirects the global config to a temp directory for the test.
func useTempConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir := getConfigDirFunc
	origPath := getConfigPathFunc
	getConfigDirFunc = func() (string, error) { return dir, nil }
	getConfigPathFunc = func() (string, error) { return filepath.Join(dir, "config.json"), nil }
	t.Cleanup(func() {
		getConfigDirFunc = origDir
		getConfigPathFunc = origPath
	})
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}

func TestAPIClient_Do(t *testing.T) {
	t.Run("sends the bearer token and parses the envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer sgp_access", r.Header.Get("Authorization"))
			writeEnvelope(w, http.StatusOK, map[string]string{"status": "ok"})
		}))
		defer srv.Close()

		api := NewAPIClientWithConfig("sgp_access", "", srv.URL)
		resp, err := api.Get("/health")

		require.NoError(t, err)
		assert.Contains(t, string(resp.Data), `"status"`)
	})

	t.Run("error responses become APIError with code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnprocessableEntity, "no goal or summary set for user", "MISSING_CONTEXT")
		}))
		defer srv.Close()

		api := NewAPIClientWithConfig("sgp_access", "", srv.URL)
		_, err := api.Get("/api/recommendations")

		require.Error(t, err)
		var apiErr *APIError
		require.True(t, asAPIError(err, &apiErr))
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		assert.Equal(t, "MISSING_CONTEXT", apiErr.Code)
	})

	t.Run("raw body is kept for unenveloped responses", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"chatcmpl-1","choices":[]}`))
		}))
		defer srv.Close()

		api := NewAPIClientWithConfig("sgp_access", "", srv.URL)
		resp, err := api.Post("/api/chat", map[string]string{})

		require.NoError(t, err)
		assert.Contains(t, string(resp.Raw), "chatcmpl-1")
		assert.Empty(t, resp.Data)
	})
}

func TestAPIClient_RefreshRetry(t *testing.T) {
	t.Run("401 triggers one refresh and a retry", func(t *testing.T) {
		var requests int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			switch {
			case r.URL.Path == "/auth/refresh":
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				assert.Equal(t, "sgp_refresh_old", body["refresh_token"])
				writeEnvelope(w, http.StatusOK, map[string]string{
					"access_token":  "sgp_access_new",
					"refresh_token": "sgp_refresh_new",
				})
			case r.Header.Get("Authorization") == "Bearer sgp_access_new":
				writeEnvelope(w, http.StatusOK, map[string]string{"status": "ok"})
			default:
				writeError(w, http.StatusUnauthorized, "invalid or expired token", "UNAUTHORIZED")
			}
		}))
		defer srv.Close()

		api := NewAPIClientWithConfig("sgp_access_old", "sgp_refresh_old", srv.URL)
		resp, err := api.Get("/api/recommendations")

		require.NoError(t, err)
		assert.NotNil(t, resp.Data)
		// original request, refresh, retry
		assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
	})

	t.Run("a second 401 is surfaced not retried again", func(t *testing.T) {
		var apiCalls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/auth/refresh" {
				writeEnvelope(w, http.StatusOK, map[string]string{
					"access_token":  "sgp_access_new",
					"refresh_token": "sgp_refresh_new",
				})
				return
			}
			atomic.AddInt32(&apiCalls, 1)
			writeError(w, http.StatusUnauthorized, "invalid or expired token", "UNAUTHORIZED")
		}))
		defer srv.Close()

		api := NewAPIClientWithConfig("sgp_access_old", "sgp_refresh_old", srv.URL)
		_, err := api.Get("/api/recommendations")

		require.Error(t, err)
		var apiErr *APIError
		require.True(t, asAPIError(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, int32(2), atomic.LoadInt32(&apiCalls))
	})

	t.Run("no refresh token fails with a login hint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnauthorized, "invalid or expired token", "UNAUTHORIZED")
		}))
		defer srv.Close()

		api := NewAPIClientWithConfig("sgp_access_old", "", srv.URL)
		_, err := api.Get("/api/recommendations")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "login")
	})

	t.Run("spent refresh token adopts the newer stored session", func(t *testing.T) {
		useTempConfig(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/auth/refresh":
				writeError(w, http.StatusUnauthorized, "refresh token already used", "REFRESH_TOKEN_ALREADY_USED")
			case r.Header.Get("Authorization") == "Bearer sgp_access_rotated":
				writeEnvelope(w, http.StatusOK, map[string]string{"status": "ok"})
			default:
				writeError(w, http.StatusUnauthorized, "invalid or expired token", "UNAUTHORIZED")
			}
		}))
		defer srv.Close()

		// Another process already rotated the pair and saved it.
		require.NoError(t, SaveGlobalConfig(&GlobalConfig{
			AccessToken:  "sgp_access_rotated",
			RefreshToken: "sgp_refresh_rotated",
			APIURL:       srv.URL,
		}))

		api := NewAPIClientWithConfig("sgp_access_old", "sgp_refresh_spent", srv.URL)
		resp, err := api.Get("/api/recommendations")

		require.NoError(t, err)
		assert.NotNil(t, resp.Data)
	})

	t.Run("spent refresh token with no newer session fails", func(t *testing.T) {
		useTempConfig(t)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/auth/refresh" {
				writeError(w, http.StatusUnauthorized, "refresh token already used", "REFRESH_TOKEN_ALREADY_USED")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid or expired token", "UNAUTHORIZED")
		}))
		defer srv.Close()

		api := NewAPIClientWithConfig("sgp_access_old", "sgp_refresh_spent", srv.URL)
		_, err := api.Get("/api/recommendations")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no newer session")
	})
}
