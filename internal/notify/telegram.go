package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	BaseURL string
	Token   string
	ChatID  string
	Client  *http.Client
}

func NewTelegram(baseURL, token, chatID string) *Telegram {
	if baseURL == "" {
		baseURL = DefaultTelegramAPI
	}
	return &Telegram{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		ChatID:  chatID,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramPayload struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (t *Telegram) endpoint() string {
	return t.BaseURL + "/bot" + t.Token + "/sendMessage"
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(telegramPayload{ChatID: t.ChatID, Text: text})
	if err != nil {
		return fmt.Errorf("telegram: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint(), bytes.NewReader(body))
	if err != nil {
		// the URL embeds the token, keep it out of the error
		return fmt.Errorf("telegram: build request: invalid base url %q", t.BaseURL)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %w", redactToken(err, t.Token))
	}
	defer resp.Body.Close()

	var tr telegramResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&tr)
	if resp.StatusCode/100 != 2 {
		if decodeErr == nil && tr.Description != "" {
			return fmt.Errorf("telegram: %d: %s", resp.StatusCode, tr.Description)
		}
		return fmt.Errorf("telegram: non-2xx status %d", resp.StatusCode)
	}
	if decodeErr == nil && !tr.OK {
		return fmt.Errorf("telegram: rejected: %s", tr.Description)
	}
	return nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}
