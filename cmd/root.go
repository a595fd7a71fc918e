package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depkeeper/internal/api"
	"depkeeper/internal/config"
	"depkeeper/internal/notifier"
	"depkeeper/internal/repolist"
	"depkeeper/internal/scheduler"
	"depkeeper/tasks"
)

// cfgFile holds the path to the configuration file specified via command-line flag.
// If empty, the application will look for config.yaml in the current directory.
var cfgFile string

// watchMode keeps the process alive and re-runs the maintenance steps at
// the configured scheduler interval instead of exiting after one pass.
var watchMode bool

var verbose bool

// appConfig stores the parsed configuration from the YAML file and the
// environment.
var appConfig config.Config

var rootCmd = &cobra.Command{
	Use:   "depkeeper",
	Short: "Automated GitHub repository maintenance for Dependabot users",
	Long: `Depkeeper keeps the repositories of an account healthy:
  - Syncs forks with their upstream repositories
  - Enables Dependabot vulnerability alerts and automated security fixes
  - Merges open Dependabot PRs once their checks pass, optionally as
    co-authored squash merges that count toward your contribution graph

Repositories can be restricted with plain-text include/exclude lists.
Run reports can be delivered via Apprise or Telegram.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp()
	},
}

// Execute is the main entry point for the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&watchMode, "watch", false, "keep running and repeat all steps at the scheduler interval")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initConfig reads the configuration file and the environment into
// appConfig. A local .env file is loaded first so tokens do not need to be
// exported manually during development.
func initConfig() {
	_ = godotenv.Load()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config.yaml in the current directory
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	// Read environment variables that match config keys, e.g.
	// DEPKEEPER_GITHUB_TOKEN overrides github.token
	viper.SetEnvPrefix("depkeeper")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindLegacyEnv()

	// The config file is optional; the environment can carry everything
	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("loaded configuration file")
	}

	if err := viper.Unmarshal(&appConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to decode configuration: %v\n", err)
		os.Exit(1)
	}
}

func setDefaults() {
	viper.SetDefault("github.user_mode", true)
	viper.SetDefault("steps.sync_forks", true)
	viper.SetDefault("steps.enable_dependabot", true)
	viper.SetDefault("steps.merge_dependabot_prs", true)
	viper.SetDefault("merge.timeout_seconds", 30)
	viper.SetDefault("merge.poll_interval_seconds", 10)
	viper.SetDefault("merge.method", "merge")
	viper.SetDefault("merge.co_author", true)
	viper.SetDefault("repos.included_file", "included_repos.txt")
	viper.SetDefault("repos.excluded_file", "excluded_repos.txt")
	viper.SetDefault("rate_limit.threshold", 200)
	viper.SetDefault("rate_limit.cooldown", "1h")
	viper.SetDefault("scheduler.interval", "6h")
}

// bindLegacyEnv keeps the environment variable names of the original shell
// deployments working alongside the DEPKEEPER_* scheme.
func bindLegacyEnv() {
	legacy := map[string]string{
		"github.token":                "MY_GITHUB_TOKEN",
		"github.author_name":          "MY_NAME",
		"github.author_email":         "MY_EMAIL",
		"github.user_mode":            "USER_MODE",
		"github.org_name":             "ORG_NAME",
		"merge.timeout_seconds":       "TIMEOUT_SECONDS",
		"merge.poll_interval_seconds": "POLL_INTERVAL_SECONDS",
		"merge.method":                "MERGE_METHOD",
		"merge.co_author":             "COUNT_MERGES_AS_PERSONAL_COMMITS",
		"steps.sync_forks":            "ENABLE_STEP_SYNC_FORKS",
		"steps.enable_dependabot":     "ENABLE_STEP_ENABLE_DEPENDABOT",
		"steps.merge_dependabot_prs":  "ENABLE_STEP_MERGE_DEPENDABOT_PRS",
		"repos.included_file":         "INCLUDED_REPOS_FILE",
		"repos.excluded_file":         "EXCLUDED_REPOS_FILE",
	}
	for key, envVar := range legacy {
		_ = viper.BindEnv(key, envVar)
	}
}

// runApp wires the client, lists and tasks from the configuration and runs
// every enabled step, either once or on a schedule in watch mode.
func runApp() error {
	if err := appConfig.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	client := api.NewGitHubAPI(appConfig.GitHub.Token)

	include, err := repolist.Load(appConfig.Repos.IncludedFile)
	if err != nil {
		return err
	}
	exclude, err := repolist.Load(appConfig.Repos.ExcludedFile)
	if err != nil {
		return err
	}
	if len(include) > 0 {
		log.Info().Int("count", len(include)).Msg("restricting run to included repositories")
	}
	if len(exclude) > 0 {
		log.Info().Int("count", len(exclude)).Msg("loaded excluded repositories")
	}

	notif := buildNotifier()

	var steps []scheduler.Task
	if appConfig.Steps.SyncForks {
		steps = append(steps, tasks.NewSyncForksTask(appConfig, client, include, exclude))
	}
	if appConfig.Steps.EnableDependabot {
		steps = append(steps, tasks.NewEnableDependabotTask(appConfig, client, include, exclude))
	}
	if appConfig.Steps.MergeDependabotPRs {
		steps = append(steps, tasks.NewMergeDependabotTask(appConfig, client, include, exclude, notif))
	}

	if !watchMode {
		for _, step := range steps {
			if err := step.Run(); err != nil {
				if api.IsAuthError(err) {
					log.Error().Err(err).Msg("authentication failed, aborting run")
					return err
				}
				log.Error().Err(err).Msg("step failed")
			}
		}
		return nil
	}

	sched := scheduler.NewScheduler()
	interval := appConfig.Scheduler.GetInterval()
	for _, step := range steps {
		sched.ScheduleTask(step, interval)
	}
	if notif != nil {
		sched.ScheduleTask(
			tasks.NewRateLimitCheckTask(client, appConfig.RateLimit.Threshold, appConfig.RateLimit.GetCooldown(), notif),
			interval,
		)
	}

	log.Info().Dur("interval", interval).Msg("starting scheduler")
	sched.Start()

	// Keep the process running; the scheduler goroutines do the work
	select {}
}

// buildNotifier picks the configured notification channel, preferring
// Apprise over direct Telegram. Returns nil when neither is configured.
func buildNotifier() notifier.Notifier {
	cfg := appConfig.Notifier
	if cfg.AppriseAPIURL != "" {
		return notifier.NewWebhookNotifier(cfg.AppriseAPIURL, cfg.GetServiceURLs())
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		return notifier.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	}
	return nil
}
