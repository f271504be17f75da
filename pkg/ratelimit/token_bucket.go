package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket paces admissions continuously instead of per window.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a limiter refilling perSecond tokens per second.
// A burst below 1 is raised to 1, which gives strictly uniform pacing.
func NewTokenBucket(perSecond, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Admit waits for a token.
func (b *TokenBucket) Admit(ctx context.Context) error {
	start := time.Now()
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	observeAdmission(PolicyTokenBucket, time.Since(start))
	return nil
}
