package attendance

import (
	"context"
	"fmt"
	"strings"

	"aerocrew.com/aerocrew/infrastructure/communication"
)

// NotifyError marks an alert-delivery failure so callers can tell "the
// sync failed" apart from "the sync succeeded but alerting failed".
// It is always logged, never escalated.
type NotifyError struct {
	Err error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("operator notification failed: %v", e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// Notifier delivers best-effort operator alerts about sync failures.
type Notifier interface {
	NotifyFailure(ctx context.Context, subject, message string) error
}

// EmailNotifier sends a plain-text failure email over SES.
type EmailNotifier struct {
	From string
	To   []string
}

func (n *EmailNotifier) NotifyFailure(ctx context.Context, subject, message string) error {
	err := communication.SendEmail(ctx, &communication.EmailInfo{
		From:    n.From,
		To:      n.To,
		Subject: subject,
		Text:    message,
	})
	if err != nil {
		return &NotifyError{Err: err}
	}
	return nil
}

// SlackNotifier posts the failure to the error channel.
type SlackNotifier struct {
	Client *communication.Slack
}

func (n *SlackNotifier) NotifyFailure(ctx context.Context, subject, message string) error {
	if err := n.Client.Error(subject + "\n" + message); err != nil {
		return &NotifyError{Err: err}
	}
	return nil
}

// MultiNotifier fans a failure out to every channel. Delivery errors are
// collected into one NotifyError; a partial delivery still counts as
// notified from the engine's point of view.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyFailure(ctx context.Context, subject, message string) error {
	var failures []string
	for _, n := range m {
		if err := n.NotifyFailure(ctx, subject, message); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return &NotifyError{Err: fmt.Errorf("%s", strings.Join(failures, "; "))}
	}
	return nil
}
