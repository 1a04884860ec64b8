package notify

import (
	"context"
	"errors"
)

// Notifier delivers one alert message to a channel (Slack, email, ...).
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans an alert out to every configured channel. All channels are
// attempted even when earlier ones fail; the combined error is returned.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
