package clients

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker, err := NewRedisLocker(client, RedisLockerOptions{Expiry: 2 * time.Second, RetryDelay: 10 * time.Millisecond})
	require.NoError(t, err)
	return locker, mr
}

func TestRedisLockerLockUnlock(t *testing.T) {
	locker, mr := newTestRedisLocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := locker.Lock(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(postingLockPrefix+"p1"))

	unlock()
	unlock()
	assert.False(t, mr.Exists(postingLockPrefix+"p1"))
}

func TestRedisLockerTimesOutWhileHeld(t *testing.T) {
	locker, _ := newTestRedisLocker(t)

	unlock, err := locker.Lock(context.Background(), "p1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = locker.Lock(ctx, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Less(t, time.Since(start), time.Second)

	other, err := locker.Lock(context.Background(), "p2")
	require.NoError(t, err)
	other()
}

func TestRedisLockerValidation(t *testing.T) {
	locker, _ := newTestRedisLocker(t)
	_, err := locker.Lock(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyLockKey)

	_, err = NewRedisLocker(nil, DefaultRedisLockerOptions())
	assert.Error(t, err)
}

func TestRedisLockerExtendsWhileHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker, err := NewRedisLocker(client, RedisLockerOptions{Expiry: 300 * time.Millisecond, RetryDelay: 10 * time.Millisecond})
	require.NoError(t, err)

	unlock, err := locker.Lock(context.Background(), "p1")
	require.NoError(t, err)
	defer unlock()

	// miniredis solo vence llaves con FastForward; sin extensión la llave caería en el segundo salto.
	mr.FastForward(250 * time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	mr.FastForward(250 * time.Millisecond)
	assert.True(t, mr.Exists(postingLockPrefix+"p1"))

	unlock()
	assert.False(t, mr.Exists(postingLockPrefix+"p1"))
}
