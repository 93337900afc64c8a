package services

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/udistrital/marketplace_mid/helpers"

	beego "github.com/beego/beego/v2/server/web"
)

const (
	StoreBackendMemory = "memory"
	StoreBackendCastor = "castor"

	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config centraliza la configuración del MID y de sus servicios externos.
type Config struct {
	AppName               string
	HTTPPort              int
	RunMode               string
	LogLevel              string
	CORSOrigins           []string
	StoreBackend          string
	CastorCRUDBaseURL     string
	NotificacionesBaseURL string
	OASBearerToken        string
	RequestTimeout        time.Duration
	RetryCount            int
	RetryBackoffMs        int
	LockBackend           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	LockTimeout           time.Duration
	MaxConflictRetries    int
	RateLimitRPS          float64
	RateLimitBurst        int
}

var (
	cfg  Config
	once sync.Once
)

// GetConfig devuelve la configuración cargada desde variables de entorno o app.conf.
func GetConfig() Config {
	once.Do(func() {
		cfg = LoadConfig()
		helpers.SetDefaultRetryCount(cfg.RetryCount)
		helpers.SetRetryBackoff(cfg.RetryBackoffMs)
	})
	return cfg
}

// LoadConfig lee la configuración sin cachearla. Falla rápido ante combinaciones inválidas.
func LoadConfig() Config {
	c := Config{
		AppName:               getString("APP_NAME", "appname", "marketplace_mid"),
		HTTPPort:              getInt("HTTP_PORT", "httpport", 8080),
		RunMode:               getString("RUN_MODE", "runmode", "dev"),
		LogLevel:              strings.ToLower(getString("LOG_LEVEL", "log_level", "info")),
		CORSOrigins:           splitList(getString("CORS_ORIGINS", "cors_origins", "http://localhost:4200")),
		StoreBackend:          strings.ToLower(getString("STORE_BACKEND", "store_backend", StoreBackendMemory)),
		CastorCRUDBaseURL:     normalizeBase(getString("CASTOR_CRUD_BASE_URL", "castor_crud_base_url", "")),
		NotificacionesBaseURL: normalizeBase(getString("NOTIFICACIONES_BASE_URL", "notificaciones_base_url", "")),
		OASBearerToken:        getString("OAS_BEARER_TOKEN", "oas_bearer_token", ""),
		RequestTimeout:        time.Duration(getInt("REQUEST_TIMEOUT_MS", "request_timeout_ms", 10000)) * time.Millisecond,
		RetryCount:            getInt("RETRY_COUNT", "retry_count", 2),
		RetryBackoffMs:        getInt("RETRY_BACKOFF_MS", "retry_backoff_ms", 300),
		LockBackend:           strings.ToLower(getString("LOCK_BACKEND", "lock_backend", LockBackendLocal)),
		RedisAddr:             getString("REDIS_ADDR", "redis_addr", "localhost:6379"),
		RedisPassword:         getString("REDIS_PASSWORD", "redis_password", ""),
		RedisDB:               getInt("REDIS_DB", "redis_db", 0),
		LockTimeout:           time.Duration(getInt("LOCK_TIMEOUT_MS", "lock_timeout_ms", 5000)) * time.Millisecond,
		MaxConflictRetries:    getInt("MAX_CONFLICT_RETRIES", "max_conflict_retries", 3),
		RateLimitRPS:          getFloat("RATE_LIMIT_RPS", "rate_limit_rps", 20),
		RateLimitBurst:        getInt("RATE_LIMIT_BURST", "rate_limit_burst", 40),
	}

	switch c.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendCastor:
		if c.CastorCRUDBaseURL == "" {
			panic("CASTOR_CRUD_BASE_URL no configurado")
		}
	default:
		panic("STORE_BACKEND no soportado: " + c.StoreBackend)
	}
	switch c.LockBackend {
	case LockBackendLocal, LockBackendRedis:
	default:
		panic("LOCK_BACKEND no soportado: " + c.LockBackend)
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = 5 * time.Second
	}
	if c.MaxConflictRetries < 0 {
		c.MaxConflictRetries = 0
	}
	return c
}

func getString(envKey, confKey, def string) string {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		return val
	}
	if val, err := beego.AppConfig.String(confKey); err == nil && strings.TrimSpace(val) != "" {
		return val
	}
	return def
}

func getInt(envKey, confKey string, def int) int {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	if val, err := beego.AppConfig.Int(confKey); err == nil {
		return val
	}
	return def
}

func getFloat(envKey, confKey string, def float64) float64 {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	if val, err := beego.AppConfig.Float(confKey); err == nil {
		return val
	}
	return def
}

func normalizeBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSuffix(trimmed, "/")
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// BuildURL compone una URL asegurando que no haya dobles slashes.
func BuildURL(base string, elems ...string) string {
	trimmed := strings.TrimSuffix(base, "/")
	for _, e := range elems {
		trimmed += "/" + strings.Trim(e, "/")
	}
	return trimmed
}
