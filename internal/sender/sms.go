package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com"

// TwilioConfig configures the SMS collaborator.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string // sending number or messaging service sender
	Timeout    time.Duration

	// BaseURL overrides the Twilio API host; tests point it at a local server.
	BaseURL string
}

// TwilioSMSSender implements SMSSender against the Twilio Messages API.
type TwilioSMSSender struct {
	cfg    TwilioConfig
	client *http.Client
}

func NewTwilioSMSSender(cfg TwilioConfig) *TwilioSMSSender {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = twilioAPIBase
	}
	return &TwilioSMSSender{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (s *TwilioSMSSender) Send(ctx context.Context, toE164, body string) error {
	form := url.Values{}
	form.Set("To", toE164)
	form.Set("From", s.cfg.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: create request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return fmt.Errorf("sms: provider status %d: %s", resp.StatusCode, readProviderError(resp.Body))
}

// readProviderError pulls the human-readable message out of a Twilio error
// payload, falling back to a truncated raw body.
func readProviderError(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}

	var payload struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		if payload.Code != 0 {
			return fmt.Sprintf("%s (code %d)", payload.Message, payload.Code)
		}
		return payload.Message
	}

	return string(raw)
}
