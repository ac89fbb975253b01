package notifier

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttled limits how often the wrapped notifier is called.
// Notifications over the limit are dropped, not queued.
type Throttled struct {
	next    Notifier
	limiter *rate.Limiter
}

// NewThrottled allows burst notifications at once and then one per interval
func NewThrottled(next Notifier, interval time.Duration, burst int) *Throttled {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Notify forwards the notification if the rate limit allows it
func (t *Throttled) Notify(ctx context.Context, title, message string) error {
	if !t.limiter.Allow() {
		return ErrThrottled
	}
	return t.next.Notify(ctx, title, message)
}
