package api

// Repository identifies a GitHub repository the token can see.
// Populated from the repository listing endpoints.
type Repository struct {
	// Name is the repository name without the owner (e.g., "widgets")
	Name string `json:"name"`

	// FullName is "owner/name" as reported by GitHub
	FullName string `json:"full_name"`

	// Owner is the user or organization owning the repository
	Owner User `json:"owner"`

	// Private indicates a private repository; private names are masked in
	// logs and reports
	Private bool `json:"private"`

	// Fork indicates the repository is a fork and can be synced upstream
	Fork bool `json:"fork"`

	// Archived repositories cannot be written to and are skipped
	Archived bool `json:"archived"`

	// DefaultBranch is the branch used for fork syncing (e.g., "main")
	DefaultBranch string `json:"default_branch"`

	// Permissions describes what the token may do with the repository
	Permissions Permissions `json:"permissions"`
}

// DisplayName returns the repository name for logs and reports.
// Private repositories are masked.
func (r Repository) DisplayName() string {
	if r.Private {
		return "[PRIVATE]"
	}
	return r.FullName
}

// User represents a GitHub account. Only the login is needed, both for
// repository owners and for filtering pull requests by author.
type User struct {
	Login string `json:"login"`
}

// Permissions holds the subset of repository permissions we care about.
type Permissions struct {
	Push bool `json:"push"`
}

// Mergeability is the GitHub-computed answer to whether a pull request can
// be merged without conflicts.
type Mergeability int

const (
	// MergeabilityUnknown covers every state GitHub reports that is neither
	// clean nor conflicting (blocked, behind, unstable, unknown, draft).
	MergeabilityUnknown Mergeability = iota
	Mergeable
	Conflicting
)

func (m Mergeability) String() string {
	switch m {
	case Mergeable:
		return "mergeable"
	case Conflicting:
		return "conflicting"
	default:
		return "unknown"
	}
}

// PullRequest represents a GitHub pull request with the fields needed for
// the merge decision. Fetched fresh on every poll, never cached.
type PullRequest struct {
	// Number is the PR number, unique per repository (e.g., #42)
	Number int `json:"number"`

	// Title is the PR title, used as the merge commit title
	Title string `json:"title"`

	// User is the PR author; only Dependabot PRs are processed
	User User `json:"user"`

	// Draft PRs are never merged
	Draft bool `json:"draft"`

	// HTMLURL is the web URL of the PR, included in run reports
	HTMLURL string `json:"html_url"`

	// Head holds the current head commit; checks are read for Head.SHA
	Head Ref `json:"head"`

	// MergeableState is GitHub's raw mergeability string ("clean",
	// "dirty", "blocked", ...). Use Mergeability for the decision.
	MergeableState string `json:"mergeable_state"`
}

// Ref is a branch reference inside a pull request.
type Ref struct {
	SHA string `json:"sha"`
}

// Mergeability maps GitHub's mergeable_state string to the three states the
// merge decision distinguishes. Only "clean" PRs are merged.
func (p *PullRequest) Mergeability() Mergeability {
	switch p.MergeableState {
	case "clean":
		return Mergeable
	case "dirty":
		return Conflicting
	default:
		return MergeabilityUnknown
	}
}

// CombinedStatus is the aggregate commit status for a commit, as returned
// by the combined status endpoint.
type CombinedStatus struct {
	State      string         `json:"state"`
	TotalCount int            `json:"total_count"`
	Statuses   []CommitStatus `json:"statuses"`
}

// CommitStatus is a single commit status context (e.g., from an external CI).
type CommitStatus struct {
	Context string `json:"context"`
	State   string `json:"state"`
}

// CheckRun is a single check run for a commit. Status is one of queued,
// in_progress or completed; Conclusion is only set once completed.
type CheckRun struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
}

type checkRunsResponse struct {
	TotalCount int        `json:"total_count"`
	CheckRuns  []CheckRun `json:"check_runs"`
}

// MergeRequest is the body of a pull request merge call.
type MergeRequest struct {
	MergeMethod   string `json:"merge_method"`
	CommitTitle   string `json:"commit_title"`
	CommitMessage string `json:"commit_message"`
}

// MergeResponse is GitHub's answer to a merge call.
type MergeResponse struct {
	Merged  bool   `json:"merged"`
	Message string `json:"message"`
	SHA     string `json:"sha"`
}

// MergeUpstreamResponse is GitHub's answer to a fork sync call.
type MergeUpstreamResponse struct {
	Message    string `json:"message"`
	MergeType  string `json:"merge_type"`
	BaseBranch string `json:"base_branch"`
}

// RateLimit describes the remaining API quota for the token.
type RateLimit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

type rateLimitResponse struct {
	Resources struct {
		Core RateLimit `json:"core"`
	} `json:"resources"`
}
