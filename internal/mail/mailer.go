// Package mail はメール送信機能を提供する。
package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Config はSMTP接続の設定。
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer はSMTP経由でメールを送信する。
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer はMailerを生成する。
func NewMailer(cfg Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendPasswordReset はパスワードリセットリンクをメールで送信する。
func (m *Mailer) SendPasswordReset(to, name, link string) error {
	if name == "" {
		name = to
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Testeam password reset")
	msg.SetBody("text/html", fmt.Sprintf(`<p>Hello %s,</p>
<p>We received a request to reset your Testeam password.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link expires in one hour. If you did not request a reset, you can ignore this email.</p>`,
		name, link))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
