package middlewares

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	internalhelpers "github.com/udistrital/marketplace_mid/internal/helpers"

	beego "github.com/beego/beego/v2/server/web"
	"github.com/beego/beego/v2/server/web/context"
)

// RateLimiter aplica un token bucket por actor y descarta entradas inactivas.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*limiterEntry
	hits    uint64
	idleTTL time.Duration
	now     func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter crea el limitador; devuelve nil si rps o burst no son positivos.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byKey:   make(map[string]*limiterEntry),
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// Allow indica si la clave puede consumir un token ahora.
func (l *RateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}
	return allowed
}

// Filter devuelve el filtro beego que responde 429 al agotar el bucket.
func (l *RateLimiter) Filter() func(ctx *context.Context) {
	return func(ctx *context.Context) {
		if l.Allow(limiterKey(ctx)) {
			return
		}
		internalhelpers.RateLimited.Inc()
		resp := internalhelpers.Fail(http.StatusTooManyRequests, "demasiadas peticiones, intente más tarde")
		ctx.Output.Header("Retry-After", "1")
		ctx.Output.SetStatus(resp.Status)
		_ = ctx.Output.JSON(resp, false, false)
	}
}

var rateOnce sync.Once

// UseRateLimit registra el limitador sobre las rutas de la API una sola vez.
func UseRateLimit(rps float64, burst int) {
	rateOnce.Do(func() {
		if limiter := NewRateLimiter(rps, burst); limiter != nil {
			beego.InsertFilter("/v1/*", beego.BeforeRouter, limiter.Filter())
		}
	})
}

// limiterKey usa el actor autenticado y, sin token, la IP remota.
func limiterKey(ctx *context.Context) string {
	if id, _, err := internalhelpers.ActorIdentity(ctx); err == nil {
		return "actor:" + id
	}
	host, _, err := net.SplitHostPort(ctx.Request.RemoteAddr)
	if err != nil {
		host = ctx.Request.RemoteAddr
	}
	return "ip:" + host
}
