package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/metalrezerv/internal/logger"
)

const defaultExpiry = 30 * time.Second

// Locker runs fn if the named lock could be taken at once
// acquired is false when someone else holds the lock, fn is not called then
type Locker interface {
	TryWithLock(ctx context.Context, name string, fn func(context.Context) error) (acquired bool, err error)
}

// Redis lock shared between service instances
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	logger logger.Logger
}

func NewRedisLocker(client redis.UniversalClient, expiry time.Duration, l logger.Logger) *RedisLocker {
	if expiry <= 0 {
		expiry = defaultExpiry
	}

	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
		logger: l,
	}
}

func (l *RedisLocker) TryWithLock(ctx context.Context, name string, fn func(context.Context) error) (bool, error) {
	mutex := l.rs.NewMutex(
		name,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(1),
	)

	if err := mutex.TryLockContext(ctx); err != nil {
		// redsync reports contention either as ErrFailed or as taken nodes
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			l.logger.Debug("Lock is held by another process", "lock", name)
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}

	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			l.logger.Warn("Failed to release lock", "lock", name, "error", err)
		}
	}()

	return true, fn(ctx)
}

// Process local lock, used when redis is not configured
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) TryWithLock(ctx context.Context, name string, fn func(context.Context) error) (bool, error) {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return false, nil
	}
	defer m.Unlock()

	return true, fn(ctx)
}
