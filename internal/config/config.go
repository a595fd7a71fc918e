package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	GitHub    GitHubConfig    `mapstructure:"github"`
	Steps     StepsConfig     `mapstructure:"steps"`
	Merge     MergeConfig     `mapstructure:"merge"`
	Repos     RepoListsConfig `mapstructure:"repos"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

func (c Config) Validate() error {
	if err := c.GitHub.Validate(); err != nil {
		return err
	}
	return c.Merge.Validate()
}

type GitHubConfig struct {
	Token       string `mapstructure:"token"`
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
	UserMode    bool   `mapstructure:"user_mode"`
	OrgName     string `mapstructure:"org_name"`
}

func (g GitHubConfig) Validate() error {
	if g.Token == "" {
		return fmt.Errorf("github.token is required")
	}
	if !g.UserMode && g.OrgName == "" {
		return fmt.Errorf("github.org_name is required when user_mode is off")
	}
	return nil
}

// Org returns the organization to list repositories for, or "" in user mode.
func (g GitHubConfig) Org() string {
	if g.UserMode {
		return ""
	}
	return g.OrgName
}

type StepsConfig struct {
	SyncForks          bool `mapstructure:"sync_forks"`
	EnableDependabot   bool `mapstructure:"enable_dependabot"`
	MergeDependabotPRs bool `mapstructure:"merge_dependabot_prs"`
}

type MergeConfig struct {
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	Method              string `mapstructure:"method"`
	CoAuthor            bool   `mapstructure:"co_author"`
}

func (m MergeConfig) Validate() error {
	switch m.Method {
	case "merge", "rebase", "squash":
		return nil
	default:
		return fmt.Errorf("merge.method must be one of merge, rebase, squash (got %q)", m.Method)
	}
}

func (m MergeConfig) GetTimeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 30 * time.Second // default
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

func (m MergeConfig) GetPollInterval() time.Duration {
	if m.PollIntervalSeconds <= 0 {
		return 10 * time.Second // default
	}
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

type RepoListsConfig struct {
	IncludedFile string `mapstructure:"included_file"`
	ExcludedFile string `mapstructure:"excluded_file"`
}

type NotifierConfig struct {
	AppriseAPIURL     string `mapstructure:"apprise_api_url"`
	AppriseServiceURL string `mapstructure:"apprise_service_url"`
	TelegramBotToken  string `mapstructure:"telegram_bot_token"`
	TelegramChatID    string `mapstructure:"telegram_chat_id"`
}

func (n NotifierConfig) GetServiceURLs() []string {
	if n.AppriseServiceURL == "" {
		return []string{}
	}
	parts := strings.Split(n.AppriseServiceURL, ",")
	var urls []string
	for _, p := range parts {
		urls = append(urls, strings.TrimSpace(p))
	}
	return urls
}

type RateLimitConfig struct {
	Threshold int    `mapstructure:"threshold"`
	Cooldown  string `mapstructure:"cooldown"` // parsed as duration
}

func (r RateLimitConfig) GetCooldown() time.Duration {
	return parseDurationWithDefault(r.Cooldown, 1*time.Hour)
}

type SchedulerConfig struct {
	Interval string `mapstructure:"interval"` // parsed as duration
}

func (s SchedulerConfig) GetInterval() time.Duration {
	return parseDurationWithDefault(s.Interval, 6*time.Hour)
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
