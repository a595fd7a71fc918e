package tasks

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"depkeeper/internal/api"
	"depkeeper/internal/config"
	"depkeeper/internal/repolist"
)

// EnableDependabotTask turns on vulnerability alerts and automated security
// fixes for every eligible repository. Both calls are idempotent PUTs.
type EnableDependabotTask struct {
	apiClient api.GitHubClient
	org       string
	include   repolist.Set
	exclude   repolist.Set
}

func NewEnableDependabotTask(cfg config.Config, client api.GitHubClient, include, exclude repolist.Set) *EnableDependabotTask {
	return &EnableDependabotTask{
		apiClient: client,
		org:       cfg.GitHub.Org(),
		include:   include,
		exclude:   exclude,
	}
}

func (t *EnableDependabotTask) Run() error {
	repos, err := t.apiClient.ListRepositories(t.org)
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}

	for _, repo := range repos {
		if !repolist.Eligible(repo.FullName, t.include, t.exclude) {
			continue
		}
		if repo.Archived {
			continue
		}

		if err := t.apiClient.EnableVulnerabilityAlerts(repo.Owner.Login, repo.Name); err != nil {
			if api.IsAuthError(err) {
				return err
			}
			log.Warn().Err(err).Str("repo", repo.DisplayName()).Msg("failed to enable vulnerability alerts")
		} else {
			log.Info().Str("repo", repo.DisplayName()).Msg("enabled vulnerability alerts")
		}

		if err := t.apiClient.EnableAutomatedSecurityFixes(repo.Owner.Login, repo.Name); err != nil {
			if api.IsAuthError(err) {
				return err
			}
			log.Warn().Err(err).Str("repo", repo.DisplayName()).Msg("failed to enable automated security fixes")
		} else {
			log.Info().Str("repo", repo.DisplayName()).Msg("enabled automated security fixes")
		}
	}

	return nil
}
