// internal/integrations/email.go
package integrations

import (
	"fmt"
	"net/smtp"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/sirupsen/logrus"

	"github.com/franchisehub/supply-backend/internal/config"
)

// EmailSender delivers HTML mail through SMTP or SES depending on
// configuration. A disabled sender logs and reports success so callers
// never block on mail in development.
type EmailSender struct {
	cfg config.EmailConfig
	ses *ses.SES
}

func NewEmailSender(cfg config.EmailConfig) (*EmailSender, error) {
	s := &EmailSender{cfg: cfg}

	if cfg.Enabled && cfg.Provider == "ses" {
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(cfg.SESRegion),
			Credentials: credentials.NewStaticCredentials(cfg.SESAccessKeyID, cfg.SESSecretAccessKey, ""),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SES session: %w", err)
		}
		s.ses = ses.New(sess)
	}

	return s, nil
}

func (s *EmailSender) Enabled() bool {
	return s.cfg.Enabled
}

func (s *EmailSender) Send(to, subject, body string) error {
	if !s.cfg.Enabled {
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).
			Debug("Email disabled, skipping send")
		return nil
	}

	if s.cfg.Provider == "ses" {
		return s.sendSES(to, subject, body)
	}
	return s.sendSMTP(to, subject, body)
}

func (s *EmailSender) sendSMTP(to, subject, body string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp host not configured")
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	return smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, msg)
}

func (s *EmailSender) sendSES(to, subject, body string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(to)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(subject),
			},
			Body: &ses.Body{
				Html: &ses.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(body),
				},
			},
		},
	}

	if _, err := s.ses.SendEmail(input); err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}
	return nil
}

// AdminList and WarehouseList expose the staff distribution lists so the
// dispatcher can mail them on order creation.
func (s *EmailSender) AdminList() []string {
	return s.cfg.AdminList
}

func (s *EmailSender) WarehouseList() []string {
	return s.cfg.WarehouseList
}
