package locks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockContended is returned when a Redis lock could not be acquired
// within the retry budget.
var ErrLockContended = errors.New("account lock contended")

// RedisLocker serializes accounts across processes using SET NX with a TTL.
// The lock value is a random token so a holder can never delete a lock that
// expired and was re-acquired by someone else; release runs a compare-and-
// delete Lua script for atomicity. Use this instead of KeyedLocker when the
// engine runs in more than one process.
type RedisLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
	maxRetries    int
}

const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client:        client,
		ttl:           30 * time.Second,
		retryInterval: 100 * time.Millisecond,
		maxRetries:    50,
	}
}

func lockKey(accountID uint) string {
	return fmt.Sprintf("transfer:lock:account:%d", accountID)
}

func (l *RedisLocker) lockOne(ctx context.Context, id uint, token string) error {
	for i := 0; i < l.maxRetries; i++ {
		ok, err := l.client.SetNX(ctx, lockKey(id), token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}
	return ErrLockContended
}

func (l *RedisLocker) unlockOne(id uint, token string) {
	// Release must succeed even when the acquiring context is done.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.client.Eval(ctx, unlockScript, []string{lockKey(id)}, token).Err()
}

// Acquire takes locks in canonical order, unwinding on any failure.
func (l *RedisLocker) Acquire(ctx context.Context, accountIDs ...uint) (Release, error) {
	ids := canonical(accountIDs)
	token := uuid.NewString()

	held := make([]uint, 0, len(ids))
	unwind := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlockOne(held[i], token)
		}
	}

	for _, id := range ids {
		if err := l.lockOne(ctx, id, token); err != nil {
			unwind()
			return nil, err
		}
		held = append(held, id)
	}

	var once sync.Once
	return func() { once.Do(unwind) }, nil
}
