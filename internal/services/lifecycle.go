package services

import (
	"context"
	"sync"
	"time"

	"github.com/beego/beego/v2/core/logs"
	"github.com/redis/go-redis/v9"

	"github.com/udistrital/marketplace_mid/internal/clients"
	internalhelpers "github.com/udistrital/marketplace_mid/internal/helpers"
	rootservices "github.com/udistrital/marketplace_mid/services"
)

var (
	lifecycleOnce sync.Once
	lifecycleMu   sync.RWMutex
	lifecycle     *Coordinator
)

// Lifecycle devuelve el coordinador del proceso construido desde la configuración.
func Lifecycle() *Coordinator {
	lifecycleOnce.Do(func() {
		c := NewFromConfig(rootservices.GetConfig())
		lifecycleMu.Lock()
		if lifecycle == nil {
			lifecycle = c
		}
		lifecycleMu.Unlock()
	})
	lifecycleMu.RLock()
	defer lifecycleMu.RUnlock()
	return lifecycle
}

// SetLifecycle reemplaza el coordinador del proceso; usado en pruebas.
func SetLifecycle(c *Coordinator) {
	lifecycleOnce.Do(func() {})
	lifecycleMu.Lock()
	lifecycle = c
	lifecycleMu.Unlock()
}

// NewFromConfig arma el coordinador con el almacén, el lock y los publicadores configurados.
func NewFromConfig(cfg rootservices.Config) *Coordinator {
	var store clients.EntityStore
	switch cfg.StoreBackend {
	case rootservices.StoreBackendCastor:
		store = clients.NewCastorCRUD(cfg)
	default:
		store = clients.NewMemoryStore()
	}

	opts := []Option{
		WithLockTimeout(cfg.LockTimeout),
		WithMaxConflictRetries(cfg.MaxConflictRetries),
		WithPublisher(FanoutPublisher(
			LogPublisher{},
			NotificationPublisher{Client: internalhelpers.NewNotificaciones(cfg)},
		)),
	}
	if cfg.LockBackend == rootservices.LockBackendRedis {
		if locker, err := newRedisLocker(cfg); err != nil {
			logs.Error("lock redis no disponible, se usa lock local: %v", err)
		} else {
			opts = append(opts, WithLocker(locker))
		}
	}

	logs.Info("coordinador listo store=%s lock=%s timeout=%s reintentos=%d",
		cfg.StoreBackend, cfg.LockBackend, cfg.LockTimeout, cfg.MaxConflictRetries)
	return NewCoordinator(store, opts...)
}

func newRedisLocker(cfg rootservices.Config) (*clients.RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	opts := clients.DefaultRedisLockerOptions()
	opts.Expiry = redisLockExpiry(cfg)
	return clients.NewRedisLocker(client, opts)
}

// redisLockExpiry cubre la espera del lock más una llamada al CRUD con todos sus reintentos.
func redisLockExpiry(cfg rootservices.Config) time.Duration {
	expiry := cfg.LockTimeout + cfg.RequestTimeout*time.Duration(cfg.RetryCount+1)
	if floor := clients.DefaultRedisLockerOptions().Expiry; expiry < floor {
		return floor
	}
	return expiry
}
