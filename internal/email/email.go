package email

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Sender delivers a single plain text message.
type Sender interface {
	Send(to, subject, body string) error
}

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg  Config
	addr string
	auth smtp.Auth
}

func NewSMTP(cfg Config) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		cfg:  cfg,
		addr: cfg.Host + ":" + cfg.Port,
		auth: auth,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf(
		"To: %s\r\nFrom: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		to, s.cfg.From, subject, body,
	))
	return smtp.SendMail(s.addr, s.auth, s.cfg.From, []string{to}, msg)
}

// LogSender stands in when SMTP is not configured; the mail lands in the log
// instead of a mailbox.
type LogSender struct {
	Log *slog.Logger
}

func (s *LogSender) Send(to, subject, body string) error {
	s.Log.Info("outgoing mail", "to", to, "subject", subject, "body", body)
	return nil
}
