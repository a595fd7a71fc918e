package api

// GitHubClient defines the interface for GitHub API operations.
// This allows for easy mocking in tests.
type GitHubClient interface {
	ListRepositories(org string) ([]Repository, error)
	ListOpenPullRequests(owner, repo string) ([]PullRequest, error)
	GetPullRequest(owner, repo string, number int) (*PullRequest, error)
	GetCombinedStatus(owner, repo, ref string) (*CombinedStatus, error)
	ListCheckRuns(owner, repo, ref string) ([]CheckRun, error)
	MergePullRequest(owner, repo string, number int, req MergeRequest) (*MergeResponse, error)
	EnableVulnerabilityAlerts(owner, repo string) error
	EnableAutomatedSecurityFixes(owner, repo string) error
	SyncFork(owner, repo, branch string) (*MergeUpstreamResponse, error)
	GetRateLimit() (*RateLimit, error)
}

// Ensure GitHubAPI implements GitHubClient interface
var _ GitHubClient = (*GitHubAPI)(nil)
