package helpers

import (
	"fmt"
	"strings"

	"github.com/beego/beego/v2/server/web/context"
)

// ParamID extrae un identificador opaco de la ruta.
func ParamID(ctx *context.Context, name string) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("contexto nil")
	}
	raw := strings.TrimSpace(ctx.Input.Param(name))
	if raw == "" {
		return "", fmt.Errorf("parametro %s vacío", name)
	}
	if len(raw) > 64 || strings.ContainsAny(raw, "/?# ") {
		return "", fmt.Errorf("parametro %s inválido", name)
	}
	return raw, nil
}
