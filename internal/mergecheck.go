package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultGitHubAPIBase is the production GitHub REST endpoint.
const DefaultGitHubAPIBase = "https://api.github.com"

// PullRef identifies a pull request on github.com.
type PullRef struct {
	Owner  string
	Repo   string
	Number int
}

// ParsePullURL recognizes https://github.com/{owner}/{repo}/pull/{number}.
// Any other shape, host, or parse failure yields ok=false: the merge check
// is simply not applicable to such URLs.
func ParsePullURL(prURL string) (PullRef, bool) {
	var ref PullRef

	u, err := url.Parse(prURL)
	if err != nil {
		return ref, false
	}
	if u.Hostname() != "github.com" {
		return ref, false
	}

	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(parts) < 4 || parts[2] != "pull" {
		return ref, false
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return ref, false
	}

	ref.Owner = parts[0]
	ref.Repo = parts[1]
	ref.Number = number
	return ref, true
}

// MergeOracle answers whether a pull request has been merged, using a single
// unauthenticated GitHub read. It fails closed: anything short of a clean
// merged=true answer is reported as not merged, and it never returns an error.
type MergeOracle struct {
	baseURL    string
	httpClient *http.Client
}

// NewMergeOracle creates a new MergeOracle instance
func NewMergeOracle(baseURL string, httpClient *http.Client) *MergeOracle {
	if baseURL == "" {
		baseURL = DefaultGitHubAPIBase
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MergeOracle{baseURL: baseURL, httpClient: httpClient}
}

// IsMerged reports whether the pull request behind prURL is merged.
func (o *MergeOracle) IsMerged(ctx context.Context, prURL string) bool {
	ref, ok := ParsePullURL(prURL)
	if !ok {
		return false
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", o.baseURL, ref.Owner, ref.Repo, ref.Number)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		LogDebug("merge check failed for %s: %v", prURL, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return false
	}

	var payload struct {
		Merged bool `json:"merged"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false
	}
	return payload.Merged
}
