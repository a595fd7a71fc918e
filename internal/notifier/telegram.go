package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TelegramNotifier sends notifications directly through the Telegram Bot
// API, for setups without an Apprise instance.
type TelegramNotifier struct {
	BotToken string
	ChatID   string

	// BaseURL is overridable for tests
	BaseURL    string
	httpClient *http.Client
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken:   botToken,
		ChatID:     chatID,
		BaseURL:    "https://api.telegram.org",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *TelegramNotifier) SendNotification(subject, message string) error {
	payload := map[string]string{
		"chat_id": t.ChatID,
		"text":    fmt.Sprintf("%s\n\n%s", subject, message),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %v", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.BotToken)
	resp, err := t.httpClient.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to send telegram request: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram request failed with status code: %d", resp.StatusCode)
	}

	return nil
}
