package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// Mutex is a single-owner Redis lock. The worker takes one per job id so a
// redelivered job is not processed twice at the same time.
type Mutex struct {
	client *Client
	key    string
	value  string
	ttl    time.Duration
	logger logging.Logger
}

var mutexUnlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var mutexExtendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// LockFactory creates mutexes sharing a client.
type LockFactory struct {
	client *Client
	log    logging.Logger
}

func NewLockFactory(client *Client, log logging.Logger) *LockFactory {
	return &LockFactory{client: client, log: log}
}

// NewMutex returns an unlocked mutex named name that expires after ttl.
func (f *LockFactory) NewMutex(name string, ttl time.Duration) *Mutex {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Mutex{
		client: f.client,
		key:    f.client.Key("lock", name),
		value:  uuid.NewString(),
		ttl:    ttl,
		logger: f.log,
	}
}

// Acquire takes the mutex name without waiting. When ok is true the caller
// must invoke release once done.
func (f *LockFactory) Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	m := f.NewMutex(name, ttl)
	ok, err = m.TryLock(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return m.Unlock, true, nil
}

// TryLock acquires the mutex without waiting.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key, m.value, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	return ok, nil
}

// Lock retries TryLock every delay until it succeeds, attempts run out or
// ctx is done.
func (m *Mutex) Lock(ctx context.Context, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		ok, err := m.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return ErrLockNotAcquired
}

func (m *Mutex) Unlock(ctx context.Context) error {
	res, err := m.client.RunScript(ctx, mutexUnlockScript, []string{m.key}, m.value).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := m.client.RunScript(ctx, mutexExtendScript, []string{m.key}, m.value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	return res == 1, nil
}

func (m *Mutex) TTL(ctx context.Context) (time.Duration, error) {
	return m.client.PTTL(ctx, m.key).Result()
}

//Personal.AI order the ending
