package tasks

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"depkeeper/internal/api"
	"depkeeper/internal/config"
	"depkeeper/internal/merger"
	"depkeeper/internal/notifier"
	"depkeeper/internal/poller"
	"depkeeper/internal/repolist"
)

// dependabotLogin is the author login of Dependabot pull requests.
const dependabotLogin = "dependabot[bot]"

// MergeDependabotTask walks all eligible repositories, polls every open
// Dependabot PR until its checks settle, and merges the ones that are safe
// to merge. Repositories and PRs are processed sequentially, in listing
// order.
type MergeDependabotTask struct {
	apiClient api.GitHubClient
	poller    *poller.Poller
	executor  *merger.Executor
	notifier  notifier.Notifier
	org       string
	include   repolist.Set
	exclude   repolist.Set
}

// NewMergeDependabotTask wires the poller and merge executor from the run
// configuration. The notifier may be nil; reports are then only logged.
func NewMergeDependabotTask(cfg config.Config, client api.GitHubClient, include, exclude repolist.Set, n notifier.Notifier) *MergeDependabotTask {
	policy := merger.Policy{
		Method:      cfg.Merge.Method,
		CoAuthor:    cfg.Merge.CoAuthor,
		AuthorName:  cfg.GitHub.AuthorName,
		AuthorEmail: cfg.GitHub.AuthorEmail,
	}
	return &MergeDependabotTask{
		apiClient: client,
		poller:    poller.New(client, cfg.Merge.GetTimeout(), cfg.Merge.GetPollInterval()),
		executor:  merger.New(client, policy),
		notifier:  n,
		org:       cfg.GitHub.Org(),
		include:   include,
		exclude:   exclude,
	}
}

func (t *MergeDependabotTask) Run() error {
	summary, err := t.RunOnce()

	log.Info().Int("merged", summary.Merged).Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).Msg("dependabot merge run finished")
	if t.notifier != nil && len(summary.Items) > 0 {
		if nerr := t.notifier.SendNotification("Dependabot merge report", summary.Report()); nerr != nil {
			log.Warn().Err(nerr).Msg("failed to send run report")
		}
	}

	return err
}

// RunOnce performs one full pass and returns the accumulated summary.
//
// Per-repository and per-PR errors are recorded and the run moves on; only
// an authentication failure aborts the whole pass, since no further call
// can succeed with the same token.
func (t *MergeDependabotTask) RunOnce() (*Summary, error) {
	summary := &Summary{}

	repos, err := t.apiClient.ListRepositories(t.org)
	if err != nil {
		return summary, fmt.Errorf("listing repositories: %w", err)
	}

	for _, repo := range repos {
		if !repolist.Eligible(repo.FullName, t.include, t.exclude) {
			log.Debug().Str("repo", repo.DisplayName()).Msg("repository not eligible, skipping")
			continue
		}
		if repo.Archived {
			log.Debug().Str("repo", repo.DisplayName()).Msg("repository archived, skipping")
			continue
		}

		if err := t.processRepo(repo, summary); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func (t *MergeDependabotTask) processRepo(repo api.Repository, summary *Summary) error {
	prs, err := t.apiClient.ListOpenPullRequests(repo.Owner.Login, repo.Name)
	if err != nil {
		if api.IsAuthError(err) {
			return err
		}
		log.Warn().Err(err).Str("repo", repo.DisplayName()).Msg("failed to list pull requests")
		summary.add(SummaryItem{
			Repo:   repo.DisplayName(),
			Status: merger.StatusFailed,
			Reason: err.Error(),
		})
		return nil
	}

	for _, pr := range prs {
		if pr.User.Login != dependabotLogin {
			continue
		}

		item, err := t.processPR(repo, pr)
		if err != nil {
			return err
		}
		summary.add(item)
	}

	return nil
}

// processPR drives one PR through the poller and the merge decision.
// Exactly one merge call happens at most, inside the executor. A non-nil
// error is only returned for authentication failures, which abort the run.
func (t *MergeDependabotTask) processPR(repo api.Repository, pr api.PullRequest) (SummaryItem, error) {
	item := SummaryItem{
		Repo:   repo.DisplayName(),
		Number: pr.Number,
		Title:  pr.Title,
	}

	if pr.Draft {
		item.Status = merger.StatusSkipped
		item.Reason = "draft PR"
		return item, nil
	}

	log.Info().Str("repo", repo.DisplayName()).Int("pr", pr.Number).
		Str("title", pr.Title).Msg("found open Dependabot PR")

	outcome, latest, err := t.poller.Wait(repo.Owner.Login, repo.Name, pr.Number)
	if err != nil {
		if api.IsAuthError(err) {
			return item, err
		}
		if api.IsNotFound(err) {
			item.Status = merger.StatusSkipped
			item.Reason = "PR no longer exists"
			return item, nil
		}
		item.Status = merger.StatusFailed
		item.Reason = err.Error()
		return item, nil
	}

	result := t.executor.AttemptMerge(repo.Owner.Login, repo.Name, latest, outcome)
	item.Status = result.Status
	item.Reason = result.Reason
	if result.Status != merger.StatusMerged {
		log.Info().Str("repo", repo.DisplayName()).Int("pr", pr.Number).
			Str("result", string(result.Status)).Str("reason", result.Reason).
			Msg("pull request not merged")
	}
	return item, nil
}
