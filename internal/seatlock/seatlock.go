// Package seatlock provides a short-lived Redis lock on one seat triple.
// The reservation writer holds it across its availability re-check and the
// insert so concurrent writers for the same seat queue up instead of racing
// to the store.
package seatlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// releaseScript deletes the key only when it still holds our token, so a
// lock that expired and was re-acquired by another writer is left alone.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Guard acquires seat locks in Redis.
type Guard struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// New returns a Guard whose locks expire after ttl.
func New(rdb redis.UniversalClient, ttl time.Duration, prefix string) *Guard {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if prefix == "" {
		prefix = "seatlock"
	}
	return &Guard{rdb: rdb, ttl: ttl, prefix: prefix}
}

// Key returns the Redis key for a seat triple.
func (g *Guard) Key(k model.SeatKey) string {
	return fmt.Sprintf("%s:%s:%s:%s", g.prefix, k.VehicleID, k.ServiceDate, k.SeatID)
}

// TryLock attempts SET NX PX on the triple.  ok is false when another
// holder has it.  The returned unlock releases only our own lock.
func (g *Guard) TryLock(ctx context.Context, k model.SeatKey) (func(context.Context), bool, error) {
	key := g.Key(k)
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("seatlock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func(ctx context.Context) {
		_ = releaseScript.Run(ctx, g.rdb, []string{key}, token).Err()
	}
	return unlock, true, nil
}
