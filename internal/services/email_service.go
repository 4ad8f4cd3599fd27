package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// AlertMailer — письма оператору о событиях, требующих внимания.
type AlertMailer interface {
	SendRejectionAlert(phone, reason string, sessions int) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, alertEmail string) AlertMailer {
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		to:     alertEmail,
	}
}

func (s *emailService) SendRejectionAlert(phone, reason string, sessions int) error {
	if s.to == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", fmt.Sprintf("Account rejected: %s", phone))

	body := fmt.Sprintf(`
		<h3>Verification rejected</h3>
		<p>Phone: <strong>%s</strong></p>
		<p>Reason: %s</p>
		<p>Active sessions detected: %d</p>
	`, phone, reason, sessions)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send rejection alert: %w", err)
	}
	return nil
}
