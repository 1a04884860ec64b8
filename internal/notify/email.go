package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/sitewatch/sitewatch/internal/config"
)

// Email sends alert mail over SMTP with STARTTLS.
type Email struct {
	cfg config.SMTPConfig
}

func NewEmail(cfg config.SMTPConfig) *Email {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return nil
	}
	return &Email{cfg: cfg}
}

func (e *Email) Send(ctx context.Context, title, text string) error {
	if e == nil || e.cfg.Host == "" {
		return errors.New("email disabled")
	}

	em := email.NewEmail()
	em.From = e.cfg.From
	em.To = append([]string{}, e.cfg.To...)
	em.Subject = title
	em.Text = []byte(text)

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	return em.SendWithStartTLS(addr, auth, &tls.Config{ServerName: e.cfg.Host})
}
