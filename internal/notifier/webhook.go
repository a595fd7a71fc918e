package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookPayload is the request body understood by an Apprise API endpoint.
type WebhookPayload struct {
	URLs   []string `json:"urls"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Type   string   `json:"type"`
	Format string   `json:"format"`
}

// WebhookNotifier posts notifications to an Apprise API instance, which
// fans them out to the configured services (Telegram, Discord, email, ...).
type WebhookNotifier struct {
	WebhookURL string
	TargetURLs []string

	httpClient *http.Client
}

func NewWebhookNotifier(webhookURL string, targetURLs []string) *WebhookNotifier {
	return &WebhookNotifier{
		WebhookURL: webhookURL,
		TargetURLs: targetURLs,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *WebhookNotifier) SendNotification(subject, message string) error {
	payload := WebhookPayload{
		URLs:   w.TargetURLs,
		Title:  subject,
		Body:   message,
		Type:   "info",
		Format: "text",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %v", err)
	}

	resp, err := w.httpClient.Post(w.WebhookURL, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status code: %d", resp.StatusCode)
	}

	return nil
}
