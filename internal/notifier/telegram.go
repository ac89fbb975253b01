package notifier

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	telegramBaseURL = "https://api.telegram.org"
	telegramTimeout = 10 * time.Second
)

// TelegramNotifier sends notifications to a Telegram chat through the Bot API
type TelegramNotifier struct {
	client   *resty.Client
	botToken string
	chatID   string
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramNotifier creates a notifier for the given bot token and chat
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram chat ID is required")
	}

	return &TelegramNotifier{
		client: resty.New().
			SetBaseURL(telegramBaseURL).
			SetTimeout(telegramTimeout).
			SetHeader("Content-Type", "application/json"),
		botToken: botToken,
		chatID:   chatID,
	}, nil
}

// Notify sends the title in bold followed by the message
func (n *TelegramNotifier) Notify(ctx context.Context, title, message string) error {
	payload := map[string]interface{}{
		"chat_id":                  n.chatID,
		"text":                     fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(title), html.EscapeString(message)),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	var result telegramResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/bot%s/sendMessage", n.botToken))
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode(), result.Description)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	return nil
}
