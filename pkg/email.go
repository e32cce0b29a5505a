package pkg

import (
	"blueprint"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

type EmailMessage struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	Body    string
	IsHTML  bool
}

// SendEmail delivers a message through the configured SMTP relay.
func SendEmail(msg EmailMessage) error {
	cfg := blueprint.GetConfig().SMTP
	if cfg.Host == "" {
		return errors.New("smtp is not configured")
	}
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}

	m := mail.NewMsg()
	if err := m.From(cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if len(msg.CC) > 0 {
		if err := m.Cc(msg.CC...); err != nil {
			return fmt.Errorf("invalid cc recipient: %w", err)
		}
	}
	if len(msg.BCC) > 0 {
		if err := m.Bcc(msg.BCC...); err != nil {
			return fmt.Errorf("invalid bcc recipient: %w", err)
		}
	}

	m.Subject(msg.Subject)
	if msg.IsHTML {
		m.SetBodyString(mail.TypeTextHTML, msg.Body)
	} else {
		m.SetBodyString(mail.TypeTextPlain, msg.Body)
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	return client.DialAndSend(m)
}
