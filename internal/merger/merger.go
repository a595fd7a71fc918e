// Package merger decides whether a polled pull request is merged and
// performs the merge call.
package merger

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"depkeeper/internal/api"
	"depkeeper/internal/poller"
)

// Status is the outcome of a merge attempt.
type Status string

const (
	StatusMerged  Status = "merged"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is the outcome of a merge attempt with a human-readable reason for
// skips and failures.
type Result struct {
	Status Status
	Reason string
}

// Policy is the immutable merge configuration for a run.
type Policy struct {
	// Method is the merge method used when CoAuthor is off: merge, rebase
	// or squash
	Method string

	// CoAuthor forces a squash merge with a Co-authored-by trailer so the
	// merge counts as a personal contribution
	CoAuthor bool

	AuthorName  string
	AuthorEmail string
}

// MergeClient is the slice of the GitHub client the executor needs.
type MergeClient interface {
	MergePullRequest(owner, repo string, number int, req api.MergeRequest) (*api.MergeResponse, error)
}

// Executor turns a poll outcome into at most one merge call.
type Executor struct {
	client MergeClient
	policy Policy
}

func New(client MergeClient, policy Policy) *Executor {
	return &Executor{client: client, policy: policy}
}

// AttemptMerge applies the merge decision table:
//
//	success + mergeable      -> merge
//	success + anything else  -> skip "not mergeable"
//	failure                  -> skip "checks failed"
//	timeout                  -> skip "checks timed out"
//
// At most one merge call is issued per invocation. A rejected merge call
// (branch protection, conflict at merge time) fails the PR and is not
// retried.
func (e *Executor) AttemptMerge(owner, repo string, pr *api.PullRequest, outcome poller.Outcome) Result {
	switch outcome {
	case poller.OutcomeFailure:
		return Result{Status: StatusSkipped, Reason: "checks failed"}
	case poller.OutcomeTimeout:
		return Result{Status: StatusSkipped, Reason: "checks timed out"}
	}

	if pr.Mergeability() != api.Mergeable {
		return Result{Status: StatusSkipped, Reason: "not mergeable"}
	}

	req := e.mergeRequest(pr)
	resp, err := e.client.MergePullRequest(owner, repo, pr.Number, req)
	if err != nil {
		if api.IsMergeRejected(err) {
			return Result{Status: StatusFailed, Reason: err.Error()}
		}
		return Result{Status: StatusFailed, Reason: fmt.Sprintf("merge call failed: %v", err)}
	}
	if !resp.Merged {
		return Result{Status: StatusFailed, Reason: fmt.Sprintf("merge not performed: %s", resp.Message)}
	}

	log.Info().Str("repo", owner+"/"+repo).Int("pr", pr.Number).
		Str("method", req.MergeMethod).Msg("merged pull request")
	return Result{Status: StatusMerged}
}

// mergeRequest builds the merge call body. With CoAuthor on, the merge is
// always a squash whose message carries a trailing Co-authored-by line,
// whatever merge method is configured.
func (e *Executor) mergeRequest(pr *api.PullRequest) api.MergeRequest {
	if e.policy.CoAuthor {
		return api.MergeRequest{
			MergeMethod: "squash",
			CommitTitle: fmt.Sprintf("Squash Merge: %s", pr.Title),
			CommitMessage: fmt.Sprintf("This merges Dependabot changes.\n\nCo-authored-by: %s <%s>",
				e.policy.AuthorName, e.policy.AuthorEmail),
		}
	}

	return api.MergeRequest{
		MergeMethod:   e.policy.Method,
		CommitTitle:   pr.Title,
		CommitMessage: "Merging Dependabot changes.",
	}
}
