package tasks

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"depkeeper/internal/api"
	"depkeeper/internal/notifier"
)

// RateLimitCheckTask watches the remaining GitHub API quota and notifies
// when it drops below a threshold, so a watch-mode deployment does not
// silently degrade into rate-limit timeouts.
type RateLimitCheckTask struct {
	threshold            int
	notificationCooldown time.Duration
	lastNotificationTime time.Time
	apiClient            api.GitHubClient
	notifier             notifier.Notifier
}

func NewRateLimitCheckTask(client api.GitHubClient, threshold int, cooldown time.Duration, notifier notifier.Notifier) *RateLimitCheckTask {
	return &RateLimitCheckTask{
		threshold:            threshold,
		notificationCooldown: cooldown,
		apiClient:            client,
		notifier:             notifier,
	}
}

func (t *RateLimitCheckTask) Run() error {
	limit, err := t.apiClient.GetRateLimit()
	if err != nil {
		return fmt.Errorf("failed to get rate limit: %v", err)
	}

	log.Debug().Int("remaining", limit.Remaining).Int("limit", limit.Limit).Msg("current API quota")

	if limit.Remaining < t.threshold {
		// Check cooldown
		if !t.lastNotificationTime.IsZero() && time.Since(t.lastNotificationTime) < t.notificationCooldown {
			log.Debug().Time("last_sent", t.lastNotificationTime).
				Msg("quota below threshold, notification skipped due to cooldown")
			return nil
		}

		subject := "GitHub API quota alert"
		message := fmt.Sprintf("Remaining GitHub API quota is below threshold: %d of %d (resets at %s)",
			limit.Remaining, limit.Limit, time.Unix(limit.Reset, 0).Format(time.RFC1123))
		if err := t.notifier.SendNotification(subject, message); err != nil {
			return fmt.Errorf("failed to send notification: %v", err)
		}
		t.lastNotificationTime = time.Now()
	}

	return nil
}
