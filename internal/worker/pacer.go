package worker

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces successive classification calls. The external endpoint is
// the scarce, rate-limited resource of the whole pipeline; one Pacer is
// shared by all documents so parallel analysis never multiplies the
// request rate.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer that admits one call per interval, with no
// burst. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
