package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client talks to the Devin session API with bearer-token auth. Transport
// behavior (timeouts, proxies) belongs to the injected http.Client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Devin API client
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

// CreatedSession is the API's answer to a session creation request.
type CreatedSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// RemoteSession is the polled state of a session. Status is already mapped
// onto the closed status set; PRURL is empty until a pull request exists.
type RemoteSession struct {
	Status Status
	PRURL  string
}

type remoteSessionPayload struct {
	StatusEnum  string `json:"status_enum"`
	Status      string `json:"status"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
}

// CreateSession starts a new remote session for the given prompt.
func (c *Client) CreateSession(ctx context.Context, prompt string) (*CreatedSession, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPost, "/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var created CreatedSession
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}
	if created.SessionID == "" {
		return nil, fmt.Errorf("create response missing session_id")
	}
	return &created, nil
}

// GetSession fetches the current remote state of a session. A missing or
// unrecognized status field maps to working rather than an error.
func (c *Client) GetSession(ctx context.Context, id string) (*RemoteSession, error) {
	data, err := c.do(ctx, http.MethodGet, "/sessions/"+id, nil)
	if err != nil {
		return nil, err
	}

	var payload remoteSessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		// Malformed body counts as an unknown status, not a failure.
		LogDebug("unparseable session payload for %s: %v", id, err)
		return &RemoteSession{Status: StatusWorking}, nil
	}

	raw := payload.StatusEnum
	if raw == "" {
		raw = payload.Status
	}

	remote := &RemoteSession{Status: ParseStatus(raw)}
	if payload.PullRequest != nil {
		remote.PRURL = payload.PullRequest.URL
	}
	return remote, nil
}

// VerifyKey reports whether the configured API key is accepted.
func (c *Client) VerifyKey(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sessions?limit=1", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := ""
		if len(data) > 0 {
			detail = string(data)
		} else {
			detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Detail: detail}
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
