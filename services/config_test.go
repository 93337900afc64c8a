package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "CASTOR")
	t.Setenv("CASTOR_CRUD_BASE_URL", "http://crud.local/v1/")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("LOCK_TIMEOUT_MS", "750")
	t.Setenv("MAX_CONFLICT_RETRIES", "-4")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ORIGINS", "http://a.local, ,http://b.local")

	c := LoadConfig()
	assert.Equal(t, StoreBackendCastor, c.StoreBackend)
	assert.Equal(t, "http://crud.local/v1", c.CastorCRUDBaseURL)
	assert.Equal(t, LockBackendRedis, c.LockBackend)
	assert.Equal(t, 750*time.Millisecond, c.LockTimeout)
	assert.Equal(t, 0, c.MaxConflictRetries)
	assert.Equal(t, 2.5, c.RateLimitRPS)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, c.CORSOrigins)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("LOCK_BACKEND", "")
	t.Setenv("LOCK_TIMEOUT_MS", "0")

	c := LoadConfig()
	assert.Equal(t, StoreBackendMemory, c.StoreBackend)
	assert.Equal(t, LockBackendLocal, c.LockBackend)
	assert.Equal(t, 5*time.Second, c.LockTimeout)
}

func TestLoadConfigRejectsInvalidBackends(t *testing.T) {
	t.Run("store desconocido", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		assert.Panics(t, func() { LoadConfig() })
	})
	t.Run("castor sin url", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "castor")
		t.Setenv("CASTOR_CRUD_BASE_URL", " ")
		assert.Panics(t, func() { LoadConfig() })
	})
	t.Run("lock desconocido", func(t *testing.T) {
		t.Setenv("LOCK_BACKEND", "zookeeper")
		assert.Panics(t, func() { LoadConfig() })
	})
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "http://crud/v1/posting/p1", BuildURL("http://crud/v1/", "/posting/", "p1"))
	assert.Equal(t, "http://crud", BuildURL("http://crud/"))
}

func TestRetryPolicyFromConfig(t *testing.T) {
	t.Setenv("RETRY_COUNT", "4")
	t.Setenv("RETRY_BACKOFF_MS", "25")

	c := GetConfig()
	assert.Equal(t, 4, c.RetryCount)
	assert.Equal(t, 25, c.RetryBackoffMs)
}
