// Package attempts stores failed login attempts per client address.
//
// MemoryStore is process-local: a deployment running several instances
// behind a load balancer under-counts attempts per address unless it
// switches to SQLiteStore (one host) or PostgresStore (many hosts).
package attempts

import (
	"errors"
	"time"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("attempts: unknown store driver")

// Record tracks consecutive failures for one address.
type Record struct {
	Count       int
	LastAttempt time.Time
}

// Store persists attempt records keyed by client address.
type Store interface {
	// Get returns the record for key and whether one exists.
	Get(key string) (Record, bool, error)
	Set(key string, rec Record) error
	// Hit counts one attempt for key in a single atomic step and returns the
	// updated record. A record whose last attempt is at or before cutoff
	// starts over at one. LastAttempt only advances while the previous count
	// is below limit, so attempts made after the limit is reached never
	// extend the lockout.
	Hit(key string, now, cutoff time.Time, limit int) (Record, error)
	Delete(key string) error
	// Sweep removes records whose last attempt is before cutoff and reports
	// how many were removed.
	Sweep(cutoff time.Time) (int, error)
	Close() error
}

// Open returns the store named by driver. An empty driver selects memory.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		s, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := OpenPostgres(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, ErrUnknownDriver
	}
}
