package middlewares

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	internalhelpers "github.com/udistrital/marketplace_mid/internal/helpers"

	beego "github.com/beego/beego/v2/server/web"
	"github.com/beego/beego/v2/server/web/context"
)

// AuthErrorKey guarda en el contexto el error de lectura del token, si lo hubo.
const AuthErrorKey = "auth_error"

var (
	authOnce sync.Once
)

// UseAuth registra el middleware de autenticación una sola vez.
func UseAuth() {
	authOnce.Do(func() {
		beego.InsertFilter("/v1/*", beego.BeforeRouter, authFilter)
	})
}

// AuthFilter expone el filtro para escenarios donde el registro manual sea preferido.
func AuthFilter(ctx *context.Context) {
	authFilter(ctx)
}

func authFilter(ctx *context.Context) {
	requestID := internalhelpers.CorrelationID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx.Output.Header("X-Request-Id", requestID)

	// Los claims quedan en caché; el error solo se guarda si el header vino mal formado.
	if _, err := internalhelpers.Claims(ctx); err != nil && !errors.Is(err, internalhelpers.ErrNoAuthHeader) {
		ctx.Input.SetData(AuthErrorKey, err)
	}
}
