package clients

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beego/beego/v2/core/logs"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const postingLockPrefix = "marketplace:lock:posting:"

var (
	// ErrLockTimeout indica que no se obtuvo el lock dentro del tiempo configurado.
	ErrLockTimeout = errors.New("tiempo de espera del lock agotado")
	// ErrEmptyLockKey indica que se intentó bloquear sin identificador.
	ErrEmptyLockKey = errors.New("llave de lock vacía")
)

// RedisLockerOptions ajusta el comportamiento del lock distribuido.
type RedisLockerOptions struct {
	// Expiry es el tiempo tras el cual Redis libera el lock si el dueño deja de extenderlo.
	Expiry time.Duration
	// RetryDelay es la espera entre intentos de adquisición.
	RetryDelay time.Duration
}

// DefaultRedisLockerOptions devuelve valores adecuados para operaciones del coordinador.
func DefaultRedisLockerOptions() RedisLockerOptions {
	return RedisLockerOptions{
		Expiry:     10 * time.Second,
		RetryDelay: 50 * time.Millisecond,
	}
}

// RedisLocker serializa operaciones por posting entre varias instancias del MID.
type RedisLocker struct {
	rs   *redsync.Redsync
	opts RedisLockerOptions
}

// NewRedisLocker crea el locker sobre un cliente go-redis ya configurado.
func NewRedisLocker(client redis.UniversalClient, opts RedisLockerOptions) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("cliente redis nil")
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultRedisLockerOptions().Expiry
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRedisLockerOptions().RetryDelay
	}
	return &RedisLocker{
		rs:   redsync.New(goredis.NewPool(client)),
		opts: opts,
	}, nil
}

// Lock adquiere el lock del posting hasta que ctx expire. El unlock devuelto es idempotente.
func (l *RedisLocker) Lock(ctx context.Context, postingID string) (func(), error) {
	if postingID == "" {
		return nil, ErrEmptyLockKey
	}
	tries := 1
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			tries = int(remaining/l.opts.RetryDelay) + 1
		}
	}

	mutex := l.rs.NewMutex(postingLockPrefix+postingID,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	// redsync devuelve ErrFailed o ErrTaken al agotar intentos; ambos cuentan como espera agotada.
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: posting %s: %v", ErrLockTimeout, postingID, err)
	}

	stop := make(chan struct{})
	go l.keepAlive(mutex, postingID, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			unlockCtx, cancel := context.WithTimeout(context.Background(), l.opts.Expiry)
			defer cancel()
			if ok, err := mutex.UnlockContext(unlockCtx); err != nil || !ok {
				logs.Warn("no fue posible liberar el lock del posting %s: ok=%v err=%v", postingID, ok, err)
			}
		})
	}, nil
}

// keepAlive extiende el lock cada tercio de Expiry mientras el dueño lo conserve.
func (l *RedisLocker) keepAlive(mutex *redsync.Mutex, postingID string, stop <-chan struct{}) {
	interval := l.opts.Expiry / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			ok, err := mutex.ExtendContext(ctx)
			cancel()
			if err != nil || !ok {
				logs.Error("lock del posting %s no pudo extenderse, la exclusión puede perderse: ok=%v err=%v", postingID, ok, err)
				return
			}
		}
	}
}
