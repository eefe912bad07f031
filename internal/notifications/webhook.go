package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yksanjo/competitor-price-tracker/internal/httputil"
	"github.com/yksanjo/competitor-price-tracker/internal/models"
	"go.uber.org/zap"
)

type WebhookSender struct {
	webhookURL string
	botName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	log        *zap.SugaredLogger
}

func NewWebhookSender(webhookURL, botName string, log *zap.SugaredLogger) *WebhookSender {
	if botName == "" {
		botName = "PriceTracker"
	}
	s := &WebhookSender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
	s.retry = httputil.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    5 * time.Second,
		OnRetry: func(attempt int, err error) {
			log.Warnf("webhook attempt %d failed: %s, retrying", attempt, err)
		},
	}
	return s
}

func (s *WebhookSender) Enabled() bool {
	return s.webhookURL != ""
}

// Send delivers a plain text message, e.g. watch-mode startup notices.
func (s *WebhookSender) Send(msg string) {
	if s.webhookURL == "" {
		return
	}
	s.post(s.textPayload(fmt.Sprintf("[%s] %s", s.botName, msg)))
}

// PriceChange delivers a rich price-change alert. Fire-and-forget: failures
// are logged, never returned.
func (s *WebhookSender) PriceChange(change models.PriceChange) {
	if s.webhookURL == "" {
		return
	}
	s.post(s.changePayload(change))
}

func (s *WebhookSender) post(payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Errorf("marshal webhook payload: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.log.Errorf("webhook delivery failed after retries: %s", err)
		return
	}
	resp.Body.Close()
}

func (s *WebhookSender) textPayload(msg string) any {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.botName,
		}
	}
	return map[string]string{
		"text":     msg,
		"username": s.botName,
	}
}

func (s *WebhookSender) changePayload(c models.PriceChange) any {
	title := fmt.Sprintf("Price %s: %s", c.Direction, c.Product)
	summary := fmt.Sprintf("%s: $%.2f -> $%.2f (%+.1f%%)", c.Product, c.OldPrice, c.NewPrice, c.Percent)

	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  fmt.Sprintf("%s\n%s", title, c.URL),
			"username": s.botName,
		}
	}

	color := "#36A64F" // decrease
	if c.Delta > 0 {
		color = "#FF6B00"
	}

	return map[string]any{
		"text":     "Price Change Alert: " + c.Product,
		"username": s.botName,
		"attachments": []map[string]any{
			{
				"color":    color,
				"title":    title,
				"fallback": summary,
				"fields": []map[string]any{
					{"title": "Old Price", "value": fmt.Sprintf("$%.2f", c.OldPrice), "short": true},
					{"title": "New Price", "value": fmt.Sprintf("$%.2f", c.NewPrice), "short": true},
					{"title": "Change", "value": fmt.Sprintf("$%.2f (%.1f%%)", abs(c.Delta), abs(c.Percent)), "short": true},
				},
				"actions": []map[string]any{
					{"type": "button", "text": "View Product", "url": c.URL},
				},
			},
		},
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
