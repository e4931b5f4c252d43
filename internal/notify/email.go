package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"boxwatch/internal/components/assert"
	"boxwatch/internal/tracker"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// Email sends every notification to a fixed list of recipients.
type Email struct {
	smtp SmtpConfig
	to   []string
	send func(mail *email.Email, addr string, auth smtp.Auth) error
}

func NewEmail(config SmtpConfig, to []string) Email {
	assert.NotEmptyStr(config.Server)
	assert.NotEmptyStr(config.EmailAddress)
	return Email{
		smtp: config,
		to:   to,
		send: (*email.Email).Send,
	}
}

func (e Email) Notify(_ context.Context, n tracker.Notification) error {
	if len(e.to) == 0 {
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("boxwatch <%s>", e.smtp.EmailAddress)
	mail.To = e.to
	mail.Subject = Subject(n)
	mail.Text = []byte(Message(n))

	addr := fmt.Sprintf("%s:%d", e.smtp.Server, e.smtp.Port)
	err := e.send(mail, addr, smtp.PlainAuth("", e.smtp.EmailAddress, e.smtp.Password, e.smtp.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = e.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
