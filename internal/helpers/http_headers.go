package helpers

import (
	"strings"

	"github.com/beego/beego/v2/server/web/context"
)

// CorrelationID devuelve el identificador de correlación que envió el cliente, si existe.
func CorrelationID(ctx *context.Context) string {
	if ctx == nil {
		return ""
	}
	if corr := strings.TrimSpace(ctx.Input.Header("X-Request-Id")); corr != "" {
		return corr
	}
	return strings.TrimSpace(ctx.Input.Header("X-Correlation-Id"))
}
