package notifications

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/yksanjo/competitor-price-tracker/internal/models"
	"go.uber.org/zap"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type EmailSender struct {
	to   string
	smtp SMTPConfig
	log  *zap.SugaredLogger
}

func NewEmailSender(to string, smtpCfg SMTPConfig, log *zap.SugaredLogger) *EmailSender {
	if smtpCfg.From == "" {
		smtpCfg.From = fmt.Sprintf("Price Tracker <%s>", smtpCfg.User)
	}
	return &EmailSender{to: to, smtp: smtpCfg, log: log}
}

func (s *EmailSender) Enabled() bool {
	return s.to != "" && s.smtp.Host != ""
}

// PriceChange sends a plain-text alert. Fire-and-forget: failures are
// logged, never returned.
func (s *EmailSender) PriceChange(c models.PriceChange) {
	if !s.Enabled() {
		return
	}

	mail := email.NewEmail()
	mail.From = s.smtp.From
	mail.To = []string{s.to}
	mail.Subject = fmt.Sprintf("Price %s: %s", c.Direction, c.Product)
	mail.Text = []byte(fmt.Sprintf(`The price for %s has %s.

Old price: $%.2f
New price: $%.2f
Change:    $%.2f (%.1f%%)

%s`, c.Product, c.Direction, c.OldPrice, c.NewPrice, abs(c.Delta), abs(c.Percent), c.URL))

	var auth smtp.Auth
	if s.smtp.User != "" {
		auth = smtp.PlainAuth("", s.smtp.User, s.smtp.Password, s.smtp.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.smtp.Host, s.smtp.Port)
	if err := mail.Send(addr, auth); err != nil {
		s.log.Errorf("email to %s failed: %s", s.to, err)
	}
}
