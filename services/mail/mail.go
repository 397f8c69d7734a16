// Package mail delivers transactional email. An unconfigured mailer is a
// no-op, never an error.
package mail

import (
	"context"
	"fmt"

	"wellbe/config"
	"wellbe/models"
	"wellbe/services/tasks"

	"github.com/hibiken/asynq"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, email models.Email) error
}

// NoopMailer drops every message.
type NoopMailer struct{}

func (NoopMailer) Enabled() bool                           { return false }
func (NoopMailer) Send(context.Context, models.Email) error { return nil }

// SMTPMailer sends synchronously over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Enabled() bool { return true }

func (m *SMTPMailer) Send(ctx context.Context, email models.Email) error {
	if email.To == "" {
		return fmt.Errorf("mail: recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.Body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", email.To, err)
	}
	return nil
}

// Enqueuer is the part of *asynq.Client the queued mailer needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueuedMailer hands messages to the background worker, which delivers
// them with the SMTP mailer and retries on failure.
type QueuedMailer struct {
	queue Enqueuer
}

func NewQueuedMailer(queue Enqueuer) *QueuedMailer {
	return &QueuedMailer{queue: queue}
}

func (m *QueuedMailer) Enabled() bool { return true }

func (m *QueuedMailer) Send(ctx context.Context, email models.Email) error {
	task, opts, err := tasks.NewEmailTask(email)
	if err != nil {
		return fmt.Errorf("mail: build task: %w", err)
	}
	if _, err := m.queue.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("mail: enqueue for %s: %w", email.To, err)
	}
	return nil
}

// FromConfig returns the SMTP mailer when email is configured, else a no-op.
func FromConfig() Mailer {
	cfg := config.AppConfig
	if !config.EmailEnabled() {
		return NoopMailer{}
	}
	return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
}
