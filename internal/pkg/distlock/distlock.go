package distlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/courier-webhooks/internal/database"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

// ErrNotAcquired is returned by Locker.Lock when the wait budget runs out.
var ErrNotAcquired = errors.New("distlock: lock not acquired")

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// NewLock creates a distributed lock using the best available backend.
// If redisClient is non-nil, uses Redis (preferred for cross-host locking).
// Otherwise falls back to PostgreSQL advisory locks.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewPGAdvisoryLock(db, key)
}

// Locker hands out short-lived per-key locks, polling until the wait budget
// is spent. One Locker is shared by all requests.
//
// Redis is preferred. When a Redis call fails the Locker falls back to a
// PostgreSQL advisory lock for that key, so a Redis outage degrades locking
// instead of failing every request.
type Locker struct {
	redis *redis.Client
	db    *sql.DB
	ttl   time.Duration
	wait  time.Duration
	poll  time.Duration
}

// NewLocker creates a Locker. ttl bounds how long a crashed holder can block
// others (Redis only); wait bounds how long Lock blocks.
func NewLocker(redisClient *redis.Client, db *sql.DB, ttl, wait time.Duration) *Locker {
	return &Locker{redis: redisClient, db: db, ttl: ttl, wait: wait, poll: 25 * time.Millisecond}
}

// Lock blocks until the lock for key is held or the wait budget elapses.
// The returned func releases it and is safe to call once.
//
// An advisory lock lives on one database session. The returned context pins
// that session (see database.WithConn) so the caller's queries share it
// rather than needing a second pooled connection while the lock is held.
func (l *Locker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	lock := NewLock(l.redis, l.db, key, l.ttl)

	deadline := time.Now().Add(l.wait)
	actx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		ok, err := lock.Acquire(actx)
		if err != nil {
			if _, isRedis := lock.(*RedisLock); isRedis && l.db != nil && actx.Err() == nil {
				logger.Warn("distlock: redis unavailable, using advisory lock", "key", key, "error", err)
				lock = NewPGAdvisoryLock(l.db, key)
				continue
			}
			if ctx.Err() == nil && actx.Err() != nil {
				return ctx, nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
			}
			return ctx, nil, err
		}
		if ok {
			held := ctx
			if pg, isPG := lock.(*PGAdvisoryLock); isPG {
				held = database.WithConn(ctx, pg.conn)
			}
			return held, func() {
				// Release must run even if the request context is done.
				rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
				defer cancel()
				_ = lock.Release(rctx)
			}, nil
		}
		if time.Now().After(deadline) {
			return ctx, nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}
		timer := time.NewTimer(l.poll)
		select {
		case <-actx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return ctx, nil, ctx.Err()
			}
			return ctx, nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		case <-timer.C:
		}
	}
}

// =============================================================================
// PostgreSQL Advisory Lock (fallback when Redis is unavailable)
// =============================================================================
// pg_try_advisory_lock / pg_advisory_unlock are session-scoped, so the lock
// pins one pooled connection from Acquire until Release. The lock is
// released automatically if that connection drops.

// PGAdvisoryLock implements DistLock using PostgreSQL advisory locks.
type PGAdvisoryLock struct {
	db     *sql.DB
	conn   *sql.Conn
	lockID int64
}

// NewPGAdvisoryLock creates a PG advisory lock with a deterministic lock ID
// derived from the given key string.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

// Acquire tries to acquire the advisory lock. Returns true if successful.
// Uses pg_try_advisory_lock which returns immediately (non-blocking).
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	if l.db == nil {
		return false, errors.New("distlock: no redis client or database configured")
	}
	if l.conn == nil {
		conn, err := l.db.Conn(ctx)
		if err != nil {
			return false, fmt.Errorf("distlock: get connection: %w", err)
		}
		l.conn = conn
	}
	var acquired bool
	if err := l.conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		l.closeConn()
		return false, fmt.Errorf("distlock: advisory lock: %w", err)
	}
	if !acquired {
		l.closeConn()
	}
	return acquired, nil
}

// Release releases the advisory lock and returns the connection to the pool.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer l.closeConn()
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}

func (l *PGAdvisoryLock) closeConn() {
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
}
