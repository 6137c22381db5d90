package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/constants"
)

// Limiter enforces the dual sliding-window quota the Riot API imposes on a
// single key: at most shortCap requests per second and longCap requests per
// two minutes, shared by every outbound call in the process.
type Limiter struct {
	mu          sync.Mutex
	shortCap    int
	longCap     int
	shortWindow time.Duration
	longWindow  time.Duration
	short       []time.Time
	long        []time.Time

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	onWait func(d time.Duration)
}

type Option func(*Limiter)

// WithWaitObserver registers a callback invoked with every admission delay,
// before the limiter goes to sleep.
func WithWaitObserver(fn func(d time.Duration)) Option {
	return func(l *Limiter) { l.onWait = fn }
}

func New(shortCap, longCap int, opts ...Option) *Limiter {
	l := &Limiter{
		shortCap:    shortCap,
		longCap:     longCap,
		shortWindow: constants.ShortRateWindow,
		longWindow:  constants.LongRateWindow,
		now:         time.Now,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until one request may be issued, records it in both
// windows and returns. It only fails when ctx is cancelled; a caller that
// keeps waiting is always eventually admitted because both windows drain.
//
// The mutex covers bookkeeping only. The sleep happens with the lock
// released so concurrent callers can run their own admission checks, and
// both windows are re-validated from scratch after every wake-up.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.short = prune(l.short, now.Add(-l.shortWindow))
		l.long = prune(l.long, now.Add(-l.longWindow))

		var wait time.Duration
		if len(l.short) >= l.shortCap {
			wait = l.shortWindow - now.Sub(l.short[0])
		}
		if wait <= 0 && len(l.long) >= l.longCap {
			wait = l.longWindow - now.Sub(l.long[0])
		}

		if wait <= 0 {
			l.short = append(l.short, now)
			l.long = append(l.long, now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if l.onWait != nil {
			l.onWait(wait)
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops timestamps at or before the cutoff. Entries are appended in
// order, so the first retained index bounds the scan.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
