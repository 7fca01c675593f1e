package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/foreverweb/auth-api/internal/config"
)

// Mailer delivers one-time codes by email. It is the only external
// collaborator of the credential pipelines and must be treated as fallible:
// callers commit no state a failed delivery would gate.
type Mailer interface {
	SendOTP(to, displayName, code string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendOTP(to, displayName, code string) error {
	subject := "Your ForeverWeb OTP Code"
	body := fmt.Sprintf("Hello %s, your OTP is: %s. It expires in 10 minutes.", displayName, code)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
