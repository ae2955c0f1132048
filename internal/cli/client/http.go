package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envAccessToken  = "SAGEPATH_ACCESS_TOKEN"
	envRefreshToken = "SAGEPATH_REFRESH_TOKEN"
	envAPIURL       = "SAGEPATH_API_URL"

	defaultAPIURL = "http://localhost:8080"

	codeRefreshTokenUsed = "REFRESH_TOKEN_ALREADY_USED"
)

type APIClient struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	persist      bool
}

// NewAPIClientWithCmd creates an APIClient with config cascade:
// flag → env → global config → default. If cmd is nil, skips flag checking.
func NewAPIClientWithCmd(cmd *cobra.Command) (*APIClient, error) {
	var accessToken, refreshToken, baseURL string

	if cmd != nil {
		if flagToken, err := cmd.Flags().GetString("access-token"); err == nil && flagToken != "" {
			accessToken = flagToken
		}
		if flagURL, err := cmd.Flags().GetString("api-url"); err == nil && flagURL != "" {
			baseURL = flagURL
		}
	}

	if accessToken == "" {
		accessToken = os.Getenv(envAccessToken)
		refreshToken = os.Getenv(envRefreshToken)
	}
	if baseURL == "" {
		baseURL = os.Getenv(envAPIURL)
	}

	// Token pairs from the stored config are the only ones the client is
	// allowed to rotate; flag/env credentials are treated as read-only.
	persist := false
	if accessToken == "" || baseURL == "" {
		globalConfig, err := LoadGlobalConfig()
		if err != nil {
			return nil, err
		}
		if globalConfig != nil {
			if accessToken == "" && globalConfig.AccessToken != "" {
				accessToken = globalConfig.AccessToken
				refreshToken = globalConfig.RefreshToken
				persist = true
			}
			if baseURL == "" && globalConfig.APIURL != "" {
				baseURL = globalConfig.APIURL
			}
		}
	}

	if accessToken == "" {
		return nil, fmt.Errorf("%s not set (run 'sagepath login' or set environment variable)", envAccessToken)
	}

	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	return newAPIClient(accessToken, refreshToken, baseURL, persist), nil
}

func NewAPIClient() (*APIClient, error) {
	_ = godotenv.Load()
	return NewAPIClientWithCmd(nil)
}

// NewAPIClientWithConfig creates an APIClient with explicit credentials.
func NewAPIClientWithConfig(accessToken, refreshToken, baseURL string) *APIClient {
	return newAPIClient(accessToken, refreshToken, baseURL, false)
}

func newAPIClient(accessToken, refreshToken, baseURL string, persist bool) *APIClient {
	return &APIClient{
		baseURL:      baseURL,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		persist:      persist,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIResponse represents the standard API response format. Raw carries the
// unparsed body for endpoints that do not use the {data} envelope (the chat
// proxy forwards the upstream payload as-is).
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
	Raw   []byte          `json:"-"`
}

// APIError represents an error from the API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Get performs a GET request.
func (c *APIClient) Get(path string) (*APIResponse, error) {
	return c.do("GET", path, nil)
}

// Post performs a POST request with JSON body.
func (c *APIClient) Post(path string, body interface{}) (*APIResponse, error) {
	return c.do("POST", path, body)
}

// Put performs a PUT request with JSON body.
func (c *APIClient) Put(path string, body interface{}) (*APIResponse, error) {
	return c.do("PUT", path, body)
}

// Delete performs a DELETE request.
func (c *APIClient) Delete(path string) (*APIResponse, error) {
	return c.do("DELETE", path, nil)
}

// do runs one request and, on a 401, refreshes the session and retries the
// request exactly once. A second 401 is surfaced to the caller.
func (c *APIClient) do(method, path string, body interface{}) (*APIResponse, error) {
	resp, err := c.doOnce(method, path, body)

	var apiErr *APIError
	if err == nil || !asAPIError(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if refreshErr := c.refreshSession(); refreshErr != nil {
		return nil, refreshErr
	}

	return c.doOnce(method, path, body)
}

func asAPIError(err error, target **APIError) bool {
	apiErr, ok := err.(*APIError)
	if ok {
		*target = apiErr
	}
	return ok
}

// refreshSession exchanges the stored refresh token for a new pair. Refresh
// tokens are single use, so a REFRESH_TOKEN_ALREADY_USED answer means another
// process already rotated the pair; in that case the stored config is
// re-read and its newer tokens are adopted.
func (c *APIClient) refreshSession() error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	if refreshToken == "" {
		return fmt.Errorf("session expired and no refresh token available (run 'sagepath login')")
	}

	resp, err := c.doOnce("POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.Code == codeRefreshTokenUsed {
			return c.adoptStoredTokens()
		}
		return fmt.Errorf("session refresh failed: %w", err)
	}

	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(resp.Data, &pair); err != nil {
		return fmt.Errorf("failed to parse refresh response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = pair.AccessToken
	c.refreshToken = pair.RefreshToken
	persist := c.persist
	c.mu.Unlock()

	if persist {
		if err := c.saveTokens(pair.AccessToken, pair.RefreshToken); err != nil {
			return err
		}
	}

	return nil
}

func (c *APIClient) adoptStoredTokens() error {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg == nil || cfg.AccessToken == "" || cfg.AccessToken == c.accessToken {
		return fmt.Errorf("refresh token already used and no newer session found (run 'sagepath login')")
	}

	c.accessToken = cfg.AccessToken
	c.refreshToken = cfg.RefreshToken
	return nil
}

func (c *APIClient) saveTokens(accessToken, refreshToken string) error {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &GlobalConfig{APIURL: c.baseURL}
	}
	cfg.AccessToken = accessToken
	cfg.RefreshToken = refreshToken
	return SaveGlobalConfig(cfg)
}

func (c *APIClient) doOnce(method, path string, body interface{}) (*APIResponse, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.Lock()
	accessToken := c.accessToken
	c.mu.Unlock()

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    string(respBody),
			}
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    apiResp.Error,
			Code:       apiResp.Code,
		}
	}

	apiResp.Raw = respBody
	return &apiResp, nil
}
