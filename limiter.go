package salonpress

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/salonpress/attempts"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterMinutes returns RetryAfter rounded up to whole minutes.
func (d Decision) RetryAfterMinutes() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int((d.RetryAfter + time.Minute - 1) / time.Minute)
}

// LoginLimiter locks an address out once it reaches max consecutive failed
// logins, until lockout has passed since its last failure.
type LoginLimiter struct {
	store   attempts.Store
	max     int
	lockout time.Duration
	now     func() time.Time
	logger  echo.Logger
}

// NewLoginLimiter creates a LoginLimiter backed by store.
func NewLoginLimiter(store attempts.Store, max int, lockout time.Duration, now func() time.Time, logger echo.Logger) *LoginLimiter {
	return &LoginLimiter{
		store:   store,
		max:     max,
		lockout: lockout,
		now:     now,
		logger:  logger,
	}
}

// Attempt counts a login attempt for addr before its credentials are
// evaluated and reports whether the attempt may proceed. Counting and deciding
// happen in one store operation, so concurrent attempts from the same address
// cannot all slip under the limit. Call Reset after a successful login.
func (l *LoginLimiter) Attempt(addr string) (Decision, error) {
	now := l.now()
	rec, err := l.store.Hit(addr, now, now.Add(-l.lockout), l.max)
	if err != nil {
		return Decision{}, err
	}
	if rec.Count > l.max {
		return Decision{Allowed: false, RetryAfter: l.lockout - now.Sub(rec.LastAttempt)}, nil
	}
	return Decision{Allowed: true}, nil
}

// Check reports whether addr may attempt a login without recording anything.
func (l *LoginLimiter) Check(addr string) (Decision, error) {
	rec, ok, err := l.store.Get(addr)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{Allowed: true}, nil
	}
	elapsed := l.now().Sub(rec.LastAttempt)
	if elapsed >= l.lockout {
		return Decision{Allowed: true}, l.store.Delete(addr)
	}
	if rec.Count >= l.max {
		return Decision{Allowed: false, RetryAfter: l.lockout - elapsed}, nil
	}
	return Decision{Allowed: true}, nil
}

// RecordFailure counts a failed login for addr. A record whose window has
// already elapsed starts over from one.
func (l *LoginLimiter) RecordFailure(addr string) error {
	now := l.now()
	_, err := l.store.Hit(addr, now, now.Add(-l.lockout), l.max)
	return err
}

// Reset forgets every failure recorded for addr.
func (l *LoginLimiter) Reset(addr string) error {
	return l.store.Delete(addr)
}

// Sweep drops records whose lockout window has passed.
func (l *LoginLimiter) Sweep() (int, error) {
	return l.store.Sweep(l.now().Add(-l.lockout))
}

// StartCleanup sweeps expired records every interval until the returned
// stop function is called. The sweep only bounds memory; expired records are
// already ignored by Check.
func (l *LoginLimiter) StartCleanup(interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n, err := l.Sweep(); err != nil {
					l.logger.Warnf("limiter: sweep: %v", err)
				} else if n > 0 {
					l.logger.Debugf("limiter: swept %d expired records", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
