package redisstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	minLockPoll = 25 * time.Millisecond
	maxLockPoll = 500 * time.Millisecond
)

// releaseLock deletes the key only while it still holds our token, so an
// expired lease never releases someone else's lock.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TurnLock is a per-user lease shared by every process on the same Redis.
type TurnLock struct {
	rdb *redis.Client
	ttl time.Duration
}

// TurnLock returns a locker whose leases expire after ttl; ttl must exceed
// the longest turn.
func (s *Store) TurnLock(ttl time.Duration) *TurnLock {
	return &TurnLock{rdb: s.rdb, ttl: ttl}
}

func turnKey(userID string) string {
	return "turnlock:" + userID
}

// LockTurn blocks until the lease is acquired or ctx is done.
func (l *TurnLock) LockTurn(ctx context.Context, userID string) (func(), error) {
	key := turnKey(userID)
	token := uuid.NewString()

	wait := minLockPoll
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = releaseLock.Run(context.Background(), l.rdb, []string{key}, token).Err()
			}, nil
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		if wait *= 2; wait > maxLockPoll {
			wait = maxLockPoll
		}
	}
}
