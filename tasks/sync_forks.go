package tasks

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"depkeeper/internal/api"
	"depkeeper/internal/config"
	"depkeeper/internal/repolist"
)

// SyncForksTask brings every eligible fork up to date with its upstream by
// merging the upstream default branch. Each sync is a single idempotent
// call; there is no polling involved.
type SyncForksTask struct {
	apiClient api.GitHubClient
	org       string
	include   repolist.Set
	exclude   repolist.Set
}

func NewSyncForksTask(cfg config.Config, client api.GitHubClient, include, exclude repolist.Set) *SyncForksTask {
	return &SyncForksTask{
		apiClient: client,
		org:       cfg.GitHub.Org(),
		include:   include,
		exclude:   exclude,
	}
}

func (t *SyncForksTask) Run() error {
	repos, err := t.apiClient.ListRepositories(t.org)
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}

	for _, repo := range repos {
		if !repolist.Eligible(repo.FullName, t.include, t.exclude) || !repo.Fork {
			continue
		}

		sync, err := t.apiClient.SyncFork(repo.Owner.Login, repo.Name, repo.DefaultBranch)
		if err != nil {
			if api.IsAuthError(err) {
				return err
			}
			if api.IsMergeRejected(err) {
				log.Warn().Str("repo", repo.DisplayName()).Str("branch", repo.DefaultBranch).
					Msg("fork has diverged from upstream, not synced")
				continue
			}
			log.Warn().Err(err).Str("repo", repo.DisplayName()).Msg("failed to sync fork")
			continue
		}

		log.Info().Str("repo", repo.DisplayName()).Str("branch", repo.DefaultBranch).
			Str("merge_type", sync.MergeType).Msg("synced fork with upstream")
	}

	return nil
}
