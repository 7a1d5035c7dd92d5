package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sweepLockTTL = 4 * time.Minute

// SweepLock keeps overlapping instances from running the same sweep track
// at once. The TTL backstops a crashed holder; the token keeps one instance
// from deleting a lock it no longer owns.
type SweepLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSweepLock(client *redis.Client) *SweepLock {
	return &SweepLock{client: client, ttl: sweepLockTTL}
}

func (l *SweepLock) key(name string) string {
	return "sweep_lock:" + name
}

// Acquire takes the named lock. ok is false when another holder has it.
func (l *SweepLock) Acquire(ctx context.Context, name string) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, l.key(name), token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release drops the named lock if this holder still owns it.
func (l *SweepLock) Release(ctx context.Context, name, token string) error {
	key := l.key(name)
	val, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil // expired, nothing to release
	}
	if err != nil {
		return err
	}
	if val != token {
		return nil // taken over by another holder after our TTL
	}
	return l.client.Del(ctx, key).Err()
}
