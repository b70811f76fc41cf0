package utils

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer delivers notifications best-effort. Implementations must not be
// relied on for correctness: a failed send never affects the operation that
// triggered it.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer returns a Mailer backed by plain SMTP with AUTH PLAIN.
func NewSMTPMailer(host, port, username, password, from string) Mailer {
	return &smtpMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" + body + "\r\n")
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, msg)
}

type logMailer struct{}

// NewLogMailer returns a Mailer that only logs, used when SMTP is not
// configured (development, tests).
func NewLogMailer() Mailer { return logMailer{} }

func (logMailer) Send(to, subject, _ string) error {
	slog.Info("mail suppressed, SMTP not configured", "to", to, "subject", subject)
	return nil
}

// RegistrationConfirmation renders the confirmation mail sent after a
// successful event registration.
func RegistrationConfirmation(collegeName, userName, title, date, eventTime, venue string) (subject, body string) {
	subject = fmt.Sprintf("Registration confirmed: %s", title)
	body = fmt.Sprintf(
		"Hi %s,\n\nYou are registered for %s.\n\nDate: %s\nTime: %s\nVenue: %s\n\nSee you there!\n%s\n",
		userName, title, date, eventTime, venue, collegeName,
	)
	return subject, body
}
