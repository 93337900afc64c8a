package controllers

import (
	"errors"
	"net/http"

	"github.com/beego/beego/v2/core/logs"

	rootcontrollers "github.com/udistrital/marketplace_mid/controllers"
	"github.com/udistrital/marketplace_mid/helpers"
	internaldto "github.com/udistrital/marketplace_mid/internal/dto"
	internalhelpers "github.com/udistrital/marketplace_mid/internal/helpers"
	"github.com/udistrital/marketplace_mid/internal/middlewares"
	internalservices "github.com/udistrital/marketplace_mid/internal/services"
)

// lifecycleController reúne lo común a los controladores del marketplace.
type lifecycleController struct {
	rootcontrollers.BaseController
}

// requireActor resuelve el actor del token y, si se indican roles, exige uno de ellos.
func (c *lifecycleController) requireActor(roles ...internalservices.Role) (internalservices.Actor, bool) {
	if authErr, ok := c.Ctx.Input.GetData(middlewares.AuthErrorKey).(error); ok && authErr != nil {
		c.respondError(helpers.NewAppError(http.StatusUnauthorized, "token inválido", authErr), "token inválido")
		return internalservices.Actor{}, false
	}
	id, role, err := internalhelpers.ActorIdentity(c.Ctx)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, internalhelpers.ErrClaimNotFound) {
			status = http.StatusForbidden
		}
		c.respondError(helpers.NewAppError(status, "actor no autenticado", err), "actor no autenticado")
		return internalservices.Actor{}, false
	}
	actor := internalservices.Actor{Id: id, Role: internalservices.Role(role)}
	if len(roles) == 0 {
		return actor, true
	}
	// Un token con ambos roles actúa con el primero que la acción admite.
	for _, r := range roles {
		if internalhelpers.RequireRole(c.Ctx, string(r)) == nil {
			actor.Role = r
			return actor, true
		}
	}
	c.respondError(helpers.Forbidden("rol no autorizado para esta acción"), "rol no autorizado")
	return internalservices.Actor{}, false
}

func (c *lifecycleController) pathID(name string) (string, bool) {
	id, err := internalhelpers.ParamID(c.Ctx, name)
	if err != nil {
		c.respondError(helpers.InvalidArgument(err.Error()), "id inválido")
		return "", false
	}
	return id, true
}

func (c *lifecycleController) parseBody(out interface{}) bool {
	if err := c.ParseJSONBody(out); err != nil {
		c.respondError(helpers.InvalidArgument("cuerpo inválido"), "cuerpo inválido")
		return false
	}
	return true
}

func (c *lifecycleController) page() (int, int) {
	return internalhelpers.ParsePageSize(c.GetString("page"), c.GetString("size"))
}

func (c *lifecycleController) respondError(err error, fallback string) {
	appErr := helpers.AsAppError(err, fallback)
	if appErr.Status >= http.StatusInternalServerError {
		logs.Error("%s %s request_id=%s: %v", c.Ctx.Request.Method, c.Ctx.Request.URL.Path,
			internalhelpers.CorrelationID(c.Ctx), err)
	}
	resp := internalhelpers.Fail(appErr.Status, appErr.Message)
	c.writeJSON(resp.Status, resp)
}

func (c *lifecycleController) writeJSON(status int, payload internaldto.APIResponseDTO) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	_ = c.ServeJSON()
}
