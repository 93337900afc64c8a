package helpers

import (
	"context"
	"net/http"
	"strings"
	"time"

	roothelpers "github.com/udistrital/marketplace_mid/helpers"
	rootservices "github.com/udistrital/marketplace_mid/services"
)

// NotificacionesClient es el wrapper al servicio de notificaciones.
type NotificacionesClient struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewNotificaciones construye el cliente desde la configuración; sin URL base no envía nada.
func NewNotificaciones(cfg rootservices.Config) *NotificacionesClient {
	return &NotificacionesClient{
		BaseURL: cfg.NotificacionesBaseURL,
		Token:   cfg.OASBearerToken,
		Timeout: cfg.RequestTimeout,
	}
}

// Enabled indica si hay servicio de notificaciones configurado.
func (n *NotificacionesClient) Enabled() bool {
	return n != nil && strings.TrimSpace(n.BaseURL) != ""
}

// Send dispara una notificación hacia un usuario.
func (n *NotificacionesClient) Send(ctx context.Context, toUserID, asunto, plantilla string, data interface{}) error {
	if !n.Enabled() {
		return nil
	}
	if strings.TrimSpace(toUserID) == "" {
		return roothelpers.NewAppError(http.StatusBadRequest, "usuario destino inválido", nil)
	}

	headers := rootservices.AddBearer(nil, n.Token)

	body := map[string]interface{}{
		"UsuarioId": toUserID,
		"Asunto":    strings.TrimSpace(asunto),
		"Plantilla": strings.TrimSpace(plantilla),
		"Datos":     data,
	}

	endpoint := rootservices.BuildURL(n.BaseURL, "notificaciones")
	var response map[string]interface{}
	if err := roothelpers.DoJSONContext(ctx, http.MethodPost, endpoint, headers, body, &response, n.Timeout, true); err != nil {
		return roothelpers.AsAppError(err, "error enviando notificación")
	}
	return nil
}
