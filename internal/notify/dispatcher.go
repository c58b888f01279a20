package notify

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher submits best-effort CRM notifications on detached goroutines.
//
// Contract:
// - Dispatch never blocks and never returns an error to the caller.
// - Delivery failures are logged and dropped; there are no retries.
// - Tasks are not joined and may outlive the request that spawned them.
//   Process shutdown abandons in-flight deliveries.
type Dispatcher struct {
	notifier *Notifier
	log      *slog.Logger
	timeout  time.Duration
}

func NewDispatcher(n *Notifier, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		log:      log,
		timeout:  15 * time.Second,
	}
}

// Dispatch submits one notification. An empty endpoint means the target is
// not configured and the dispatch is silently skipped.
func (d *Dispatcher) Dispatch(endpoint, phone string) {
	if endpoint == "" {
		return
	}

	go func() {
		// Deliberately detached from the request context; the notification
		// should still be attempted after the webhook response is sent.
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Post(ctx, endpoint, Notification{Phone: phone}); err != nil {
			d.log.Error("crm notification failed", "endpoint", endpoint, "err", err)
			return
		}
		d.log.Debug("crm notification delivered", "endpoint", endpoint)
	}()
}
