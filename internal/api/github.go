package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// apiVersion is sent with every request, pinning the REST API behavior.
const apiVersion = "2022-11-28"

// GitHubAPI is a client for the GitHub REST API.
// It adds the bearer token and API version headers to every request and
// classifies response status codes into the typed errors in errors.go.
// It performs no retries of its own.
type GitHubAPI struct {
	// BaseURL is the GitHub API base URL (https://api.github.com)
	BaseURL string

	// Token is the personal access token used for authentication.
	// All endpoints used here require write access, so a token is mandatory.
	Token string

	// httpClient is the underlying HTTP client, shared for pooling
	httpClient *http.Client
}

// NewGitHubAPI creates a GitHub API client authenticated with the given
// personal access token.
func NewGitHubAPI(token string) *GitHubAPI {
	return &GitHubAPI{
		BaseURL:    "https://api.github.com",
		Token:      token,
		httpClient: DefaultHTTPClient,
	}
}

// do executes a single API request and returns the status code, headers and
// raw body. Network-level failures are reported as TransientError so callers
// can apply their retry policy uniformly.
func (g *GitHubAPI) do(method, path string, query url.Values, body any) (int, http.Header, []byte, error) {
	u := g.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u, reqBody)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Add("Accept", "application/vnd.github+json")
	req.Header.Add("X-GitHub-Api-Version", apiVersion)
	req.Header.Add("User-Agent", "depkeeper") // GitHub requires a User-Agent header
	req.Header.Add("Authorization", "Bearer "+g.Token)
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, &TransientError{Err: err}
	}

	// Ensure the response body is closed when we're done
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, &TransientError{Err: err}
	}

	return resp.StatusCode, resp.Header, respBody, nil
}

// get issues a GET request and returns the body for 200 responses.
// Any other status code is mapped to the error taxonomy.
func (g *GitHubAPI) get(path string, query url.Values) ([]byte, error) {
	status, header, body, err := g.do(http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, responseError(path, status, header, body)
	}
	return body, nil
}

// ListRepositories returns all repositories the token has push access to.
// With an empty org it lists the authenticated user's repositories,
// otherwise the organization's. Paginates beyond 100 repositories.
func (g *GitHubAPI) ListRepositories(org string) ([]Repository, error) {
	path := "/user/repos"
	if org != "" {
		path = "/orgs/" + org + "/repos"
	}

	var writable []Repository
	for page := 1; ; page++ {
		query := url.Values{
			"per_page": {"100"},
			"page":     {strconv.Itoa(page)},
		}
		if org != "" {
			query.Set("type", "all")
		}

		body, err := g.get(path, query)
		if err != nil {
			return nil, fmt.Errorf("listing repositories: %w", err)
		}

		var repos []Repository
		if err := json.Unmarshal(body, &repos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal repository list: %v", err)
		}
		if len(repos) == 0 {
			break
		}

		for _, r := range repos {
			if r.Permissions.Push {
				writable = append(writable, r)
			}
		}
	}

	return writable, nil
}

// ListOpenPullRequests returns all open pull requests of a repository,
// oldest first. Paginates beyond 100 PRs.
//
// The listing endpoint does not populate mergeable_state; use
// GetPullRequest for a fresh, complete record.
func (g *GitHubAPI) ListOpenPullRequests(owner, repo string) ([]PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)

	var all []PullRequest
	for page := 1; ; page++ {
		query := url.Values{
			"state":     {"open"},
			"sort":      {"created"},
			"direction": {"asc"},
			"per_page":  {"100"},
			"page":      {strconv.Itoa(page)},
		}

		body, err := g.get(path, query)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s/%s: %w", owner, repo, err)
		}

		var prs []PullRequest
		if err := json.Unmarshal(body, &prs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pull request list: %v", err)
		}
		if len(prs) == 0 {
			break
		}
		all = append(all, prs...)
	}

	return all, nil
}

// GetPullRequest fetches a single pull request, including its current
// mergeable_state and head commit.
func (g *GitHubAPI) GetPullRequest(owner, repo string, number int) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	body, err := g.get(path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request %s/%s#%d: %w", owner, repo, number, err)
	}

	var pr PullRequest
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pull request: %v", err)
	}
	return &pr, nil
}

// GetCombinedStatus fetches the combined commit status for a commit.
func (g *GitHubAPI) GetCombinedStatus(owner, repo, ref string) (*CombinedStatus, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits/%s/status", owner, repo, ref)
	body, err := g.get(path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching combined status for %s/%s@%s: %w", owner, repo, ref, err)
	}

	var status CombinedStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal combined status: %v", err)
	}
	return &status, nil
}

// ListCheckRuns fetches the check runs for a commit.
func (g *GitHubAPI) ListCheckRuns(owner, repo, ref string) ([]CheckRun, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits/%s/check-runs", owner, repo, ref)
	body, err := g.get(path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching check runs for %s/%s@%s: %w", owner, repo, ref, err)
	}

	var resp checkRunsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal check runs: %v", err)
	}
	return resp.CheckRuns, nil
}

// MergePullRequest performs the merge call for a pull request.
// A 405 or 409 response (branch protection, conflict surfaced at merge
// time) is returned as MergeRejectedError and must not be retried.
func (g *GitHubAPI) MergePullRequest(owner, repo string, number int, req MergeRequest) (*MergeResponse, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/merge", owner, repo, number)
	status, header, body, err := g.do(http.MethodPut, path, nil, req)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var merge MergeResponse
		if err := json.Unmarshal(body, &merge); err != nil {
			return nil, fmt.Errorf("failed to unmarshal merge response: %v", err)
		}
		return &merge, nil
	case http.StatusMethodNotAllowed, http.StatusConflict:
		var merge MergeResponse
		_ = json.Unmarshal(body, &merge)
		return nil, &MergeRejectedError{StatusCode: status, Message: merge.Message}
	default:
		return nil, responseError(path, status, header, body)
	}
}

// EnableVulnerabilityAlerts turns on vulnerability alerts for a repository.
// The call is idempotent; GitHub answers 204 whether or not alerts were
// already enabled.
func (g *GitHubAPI) EnableVulnerabilityAlerts(owner, repo string) error {
	return g.putNoContent(fmt.Sprintf("/repos/%s/%s/vulnerability-alerts", owner, repo))
}

// EnableAutomatedSecurityFixes turns on Dependabot security updates for a
// repository. Idempotent like EnableVulnerabilityAlerts.
func (g *GitHubAPI) EnableAutomatedSecurityFixes(owner, repo string) error {
	return g.putNoContent(fmt.Sprintf("/repos/%s/%s/automated-security-fixes", owner, repo))
}

func (g *GitHubAPI) putNoContent(path string) error {
	status, header, body, err := g.do(http.MethodPut, path, nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent {
		return responseError(path, status, header, body)
	}
	return nil
}

// SyncFork merges upstream changes into a fork's branch.
// A 409 response means the fork has diverged and cannot be fast-forwarded;
// it is returned as MergeRejectedError.
func (g *GitHubAPI) SyncFork(owner, repo, branch string) (*MergeUpstreamResponse, error) {
	path := fmt.Sprintf("/repos/%s/%s/merge-upstream", owner, repo)
	status, header, body, err := g.do(http.MethodPost, path, nil, map[string]string{"branch": branch})
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var sync MergeUpstreamResponse
		if err := json.Unmarshal(body, &sync); err != nil {
			return nil, fmt.Errorf("failed to unmarshal merge-upstream response: %v", err)
		}
		return &sync, nil
	case http.StatusConflict:
		return nil, &MergeRejectedError{StatusCode: status, Message: "fork has diverged from upstream"}
	default:
		return nil, responseError(path, status, header, body)
	}
}

// GetRateLimit returns the remaining core API quota for the token.
// Rate limit requests do not count against the quota themselves.
func (g *GitHubAPI) GetRateLimit() (*RateLimit, error) {
	body, err := g.get("/rate_limit", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching rate limit: %w", err)
	}

	var resp rateLimitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rate limit: %v", err)
	}
	return &resp.Resources.Core, nil
}
