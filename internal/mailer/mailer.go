package mailer

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"

	"backend-tripplanner/internal/config"

	"github.com/wneessen/go-mail"
)

// Message is the payload handed to a Mailer. Delivery is best effort:
// callers log failures and move on, they never roll back on a failed send.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// FromConfig picks the SMTP mailer when SMTP_ADDR is set and falls back to
// logging messages, which keeps local development working without a relay.
func FromConfig(cfg config.Config) Mailer {
	if cfg.SMTPAddr == "" {
		return LogMailer{}
	}
	m, err := NewSMTP(cfg)
	if err != nil {
		log.Printf("mailer: invalid smtp config, falling back to log mailer: %v", err)
		return LogMailer{}
	}
	return m
}

type SMTP struct {
	client   *mail.Client
	fromName string
	fromAddr string
}

func NewSMTP(cfg config.Config) (*SMTP, error) {
	host, portStr, err := net.SplitHostPort(cfg.SMTPAddr)
	if err != nil {
		return nil, fmt.Errorf("parse smtp addr %q: %w", cfg.SMTPAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse smtp port %q: %w", portStr, err)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTP{
		client:   client,
		fromName: cfg.MailFromName,
		fromAddr: cfg.MailFromAddr,
	}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.FromFormat(s.fromName, s.fromAddr); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := m.AddToFormat(msg.ToName, msg.ToEmail); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send to %s: %w", msg.ToEmail, err)
	}
	return nil
}

// LogMailer writes messages to the process log instead of delivering them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Printf("mailer: [log only] to=%s subject=%q", msg.ToEmail, msg.Subject)
	return nil
}
