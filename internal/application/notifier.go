package application

import "context"

// Notifier receives human readable progress lines. The session uses one for
// the running commentary and, optionally, a second one for played picks.
// Delivery failures are logged by the caller and never end an iteration.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, message string) error

func (f NotifierFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}
