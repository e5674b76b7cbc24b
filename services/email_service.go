package services

import (
	"fmt"
	"html"

	"lendingdesk/config"

	"gopkg.in/gomail.v2"
)

// Mailer отправляет служебные письма
type Mailer interface {
	SendPasswordReset(to, name, link string) error
}

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := buildMessage(s.from, to, subject, body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// SendPasswordReset отправляет ссылку для сброса пароля
func (s *EmailService) SendPasswordReset(to, name, link string) error {
	return s.SendEmail(to, "Password reset", passwordResetBody(name, link))
}

func buildMessage(from, to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func passwordResetBody(name, link string) string {
	return fmt.Sprintf(`
		<h2>Password reset</h2>
		<p>Hello, %s.</p>
		<p>We received a request to reset your password. The link below is valid for 60 minutes and can be used once:</p>
		<p><a href="%s">Reset password</a></p>
		<p>If you did not request a reset, ignore this email.</p>
	`, html.EscapeString(name), html.EscapeString(link))
}
