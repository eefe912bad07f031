// Package notifications delivers price-change alerts over a
// Slack/Discord-compatible webhook and/or email. Delivery is best-effort:
// a failed notification never fails the check that produced it.
package notifications

import (
	"github.com/yksanjo/competitor-price-tracker/internal/models"
	"go.uber.org/zap"
)

// Notifier fans a price change out to every configured channel.
type Notifier struct {
	webhook *WebhookSender
	email   *EmailSender
	log     *zap.SugaredLogger
}

func NewNotifier(webhook *WebhookSender, email *EmailSender, log *zap.SugaredLogger) *Notifier {
	return &Notifier{webhook: webhook, email: email, log: log}
}

func (n *Notifier) Enabled() bool {
	return n.webhook.Enabled() || n.email.Enabled()
}

func (n *Notifier) PriceChange(c models.PriceChange) {
	n.log.Infow("price change detected",
		"product", c.Product,
		"old", c.OldPrice,
		"new", c.NewPrice,
		"percent", c.Percent,
	)
	n.webhook.PriceChange(c)
	n.email.PriceChange(c)
}

// Announce sends a plain status message (webhook only), e.g. on watch start.
func (n *Notifier) Announce(msg string) {
	n.webhook.Send(msg)
}
