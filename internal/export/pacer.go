package export

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBatchDelay is the pause between consecutive batch downloads.
const DefaultBatchDelay = 500 * time.Millisecond

// Pacer decides how long the batch orchestrator waits before the next
// download.
//
// Wait must block until the next request may start or ctx is done, and
// return ctx.Err() in the latter case. A Pacer only controls timing: the
// orchestrator never starts two requests concurrently regardless of pacer.
type Pacer interface {
	Wait(ctx context.Context) error
}

// PacerFunc adapts a function to the Pacer interface.
type PacerFunc func(ctx context.Context) error

// Wait calls f(ctx).
func (f PacerFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

// FixedDelay waits d before every request.
//
// Example:
//
//	exporter := NewExporter(client, saver, WithPacer(FixedDelay(time.Second)))
func FixedDelay(d time.Duration) Pacer {
	return PacerFunc(func(ctx context.Context) error {
		if d <= 0 {
			return ctx.Err()
		}
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	})
}

// NoDelay never waits.
func NoDelay() Pacer {
	return FixedDelay(0)
}

// batchStarter is implemented by pacers that also meter the first request
// of a batch. fetchAll calls Start before request 1 and Wait before the rest.
type batchStarter interface {
	Start(ctx context.Context) error
}

// RateLimit paces requests with a token bucket.
//
// limit is the sustained rate in requests per second and burst the number
// of requests allowed back to back. Burst values below 1 are raised to 1.
// Every request of a batch takes a token, the first one included, so with
// burst 1 consecutive requests are at least 1/limit apart.
//
// Example:
//
//	// at most one request every two seconds
//	pacer := RateLimit(rate.Every(2*time.Second), 1)
func RateLimit(limit rate.Limit, burst int) Pacer {
	if burst < 1 {
		burst = 1
	}
	return &ratePacer{limiter: rate.NewLimiter(limit, burst)}
}

type ratePacer struct {
	limiter *rate.Limiter
}

// Start takes the token for the first request of a batch. It only blocks
// when the previous batch used the bucket up.
func (p *ratePacer) Start(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func (p *ratePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
