// Package throttle slows down repeated failed logins with a randomised
// exponential delay.
//
// The counter is in memory only and starts at zero on every process start.
package throttle

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// NotifyThreshold is the delay from which the user is told to wait.
const NotifyThreshold = time.Second

// maxExponent keeps 2^attempts * 1000ms inside time.Duration.
const maxExponent = 32

// Throttle counts consecutive failures for one login form. It is not safe
// for concurrent use.
type Throttle struct {
	attempts   int
	maxBackoff time.Duration

	// seams
	rand   func() float64
	sleep  func(ctx context.Context, d time.Duration) error
	notify func(d time.Duration)
}

// New returns a Throttle. A zero maxBackoff leaves delays uncapped. notify
// may be nil.
func New(maxBackoff time.Duration, notify func(d time.Duration)) *Throttle {
	if notify == nil {
		notify = func(time.Duration) {}
	}
	return &Throttle{
		maxBackoff: maxBackoff,
		rand:       cryptoFloat64,
		sleep:      sleepCtx,
		notify:     notify,
	}
}

// Attempts returns the number of failures since the last reset.
func (t *Throttle) Attempts() int { return t.attempts }

// Reset clears the counter after a successful authentication.
func (t *Throttle) Reset() { t.attempts = 0 }

// MaxDelay is the upper bound of the delay after n failures, 2^n seconds
// (capped when a maximum backoff is set).
func (t *Throttle) MaxDelay(n int) time.Duration {
	return t.capped(time.Duration(pow2(n)) * time.Second)
}

// Delay computes floor(frac * 2^n * 1000) milliseconds for a uniform frac
// in [0,1).
func (t *Throttle) Delay(n int, frac float64) time.Duration {
	ms := math.Floor(frac * float64(pow2(n)) * 1000)
	return t.capped(time.Duration(ms) * time.Millisecond)
}

// Fail records a failure and blocks for the randomised delay. Delays of at
// least one second are announced through notify before waiting. It returns
// the delay and ctx.Err() if the wait was cut short.
func (t *Throttle) Fail(ctx context.Context) (time.Duration, error) {
	t.attempts++
	d := t.Delay(t.attempts, t.rand())

	if d >= NotifyThreshold {
		t.notify(d)
	}
	if d <= 0 {
		return 0, nil
	}
	return d, t.sleep(ctx, d)
}

func (t *Throttle) capped(d time.Duration) time.Duration {
	if t.maxBackoff > 0 && d > t.maxBackoff {
		return t.maxBackoff
	}
	return d
}

func pow2(n int) int64 {
	if n < 0 {
		n = 0
	}
	if n > maxExponent {
		n = maxExponent
	}
	return int64(1) << n
}

// cryptoFloat64 returns a uniform float64 in [0,1) built from 53 random bits.
func cryptoFloat64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
