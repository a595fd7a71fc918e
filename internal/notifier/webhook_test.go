package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebhookNotifier(t *testing.T) {
	webhookURL := "https://apprise.example.com/notify"
	targetURLs := []string{"tgram://token/id", "discord://webhook/token"}

	notifier := NewWebhookNotifier(webhookURL, targetURLs)

	assert.NotNil(t, notifier)
	assert.Equal(t, webhookURL, notifier.WebhookURL)
	assert.Equal(t, targetURLs, notifier.TargetURLs)
}

func TestWebhookNotifier_SendNotification_Success(t *testing.T) {
	var receivedPayload WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &receivedPayload))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	targetURLs := []string{"tgram://token/id"}
	notifier := NewWebhookNotifier(server.URL, targetURLs)

	err := notifier.SendNotification("Dependabot merge report", "merged: 1, skipped: 0, failed: 0")

	assert.NoError(t, err)
	assert.Equal(t, "Dependabot merge report", receivedPayload.Title)
	assert.Equal(t, "merged: 1, skipped: 0, failed: 0", receivedPayload.Body)
	assert.Equal(t, "info", receivedPayload.Type)
	assert.Equal(t, "text", receivedPayload.Format)
	assert.Equal(t, targetURLs, receivedPayload.URLs)
}

func TestWebhookNotifier_SendNotification_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, []string{"tgram://token/id"})

	err := notifier.SendNotification("subject", "message")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
