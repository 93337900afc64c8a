package controllers

import (
	"github.com/udistrital/marketplace_mid/controllers/errorhandler"
	"github.com/udistrital/marketplace_mid/helpers"
	internaldto "github.com/udistrital/marketplace_mid/internal/dto"
	internalhelpers "github.com/udistrital/marketplace_mid/internal/helpers"
	internalservices "github.com/udistrital/marketplace_mid/internal/services"
	"github.com/udistrital/marketplace_mid/models"
)

// DeliverablesController gestiona las entregas versionadas y su revisión.
type DeliverablesController struct {
	lifecycleController
}

// GetListado lista las entregas de un posting ordenadas por versión.
// @Summary Listar entregas del posting
// @Tags Entregas
// @Produce json
// @Param id path string true "Id del posting"
// @Param page query int false "Página" Example(1)
// @Param size query int false "Tamaño de página" Example(20)
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 404 {object} internaldto.APIResponseDTO
func (c *DeliverablesController) GetListado() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor()
	if !ok {
		return
	}
	postingID, ok := c.pathID(":id")
	if !ok {
		return
	}

	deliverables, err := internalservices.Lifecycle().ListDeliverables(c.Ctx.Request.Context(), postingID, actor)
	if err != nil {
		c.respondError(err, "error consultando entregas")
		return
	}

	page, size := c.page()
	resp := internalhelpers.Ok(internalhelpers.Paginate(deliverables, page, size))
	c.writeJSON(resp.Status, resp)
}

// PostEntregar registra una nueva versión de trabajo.
// @Summary Enviar entrega
// @Description Ejemplo de request: {"content":"https://repo/commit/abc"}
// @Tags Entregas
// @Accept json
// @Produce json
// @Param id path string true "Id del posting"
// @Param body body internaldto.DeliverableSubmit true "Contenido"
// @Success 201 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 409 {object} internaldto.APIResponseDTO
// @Failure 503 {object} internaldto.APIResponseDTO
func (c *DeliverablesController) PostEntregar() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor(internalservices.RoleWorker)
	if !ok {
		return
	}
	postingID, ok := c.pathID(":id")
	if !ok {
		return
	}
	var body internaldto.DeliverableSubmit
	if !c.parseBody(&body) {
		return
	}

	result, err := internalservices.Lifecycle().SubmitDeliverable(c.Ctx.Request.Context(), postingID, actor.Id, body.Content)
	if err != nil {
		c.respondError(err, "error registrando entrega")
		return
	}

	resp := internalhelpers.Created(result)
	c.writeJSON(resp.Status, resp)
}

// GetById consulta una entrega; solo su cliente o su trabajador.
// @Summary Consultar entrega
// @Tags Entregas
// @Produce json
// @Param id path string true "Id de la entrega"
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 404 {object} internaldto.APIResponseDTO
func (c *DeliverablesController) GetById() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor()
	if !ok {
		return
	}
	deliverableID, ok := c.pathID(":id")
	if !ok {
		return
	}

	result, err := internalservices.Lifecycle().GetDeliverable(c.Ctx.Request.Context(), deliverableID, actor)
	if err != nil {
		c.respondError(err, "error consultando entrega")
		return
	}

	resp := internalhelpers.Ok(result)
	c.writeJSON(resp.Status, resp)
}

// DeleteEntrega elimina una entrega no aprobada del trabajador.
// @Summary Eliminar entrega
// @Tags Entregas
// @Produce json
// @Param id path string true "Id de la entrega"
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 409 {object} internaldto.APIResponseDTO
func (c *DeliverablesController) DeleteEntrega() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor(internalservices.RoleWorker)
	if !ok {
		return
	}
	deliverableID, ok := c.pathID(":id")
	if !ok {
		return
	}

	if err := internalservices.Lifecycle().DeleteDeliverable(c.Ctx.Request.Context(), deliverableID, actor.Id); err != nil {
		c.respondError(err, "error eliminando entrega")
		return
	}

	resp := internalhelpers.Ok(map[string]string{"id": deliverableID})
	resp.Message = "Entrega eliminada"
	c.writeJSON(resp.Status, resp)
}

// PutRevisar aplica la decisión del cliente sobre una entrega en revisión.
// @Summary Revisar entrega
// @Description Decisiones: approve, request_changes, reject. Ejemplo de request: {"decision":"request_changes","feedback":{"message":"Falta el footer","requested_changes":["footer"]}}
// @Tags Entregas
// @Accept json
// @Produce json
// @Param id path string true "Id de la entrega"
// @Param body body internaldto.DeliverableReview true "Decisión"
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 400 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 409 {object} internaldto.APIResponseDTO
func (c *DeliverablesController) PutRevisar() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor(internalservices.RoleClient)
	if !ok {
		return
	}
	deliverableID, ok := c.pathID(":id")
	if !ok {
		return
	}
	var body internaldto.DeliverableReview
	if !c.parseBody(&body) {
		return
	}
	decision, valid := models.ParseReviewDecision(body.Decision)
	if !valid {
		c.respondError(helpers.InvalidArgument("decisión no soportada: "+body.Decision), "decisión inválida")
		return
	}
	var feedback *models.Feedback
	if body.Feedback != nil {
		feedback = &models.Feedback{Message: body.Feedback.Message, RequestedChanges: body.Feedback.RequestedChanges}
	}

	result, err := internalservices.Lifecycle().ReviewDeliverable(c.Ctx.Request.Context(), deliverableID, actor.Id, decision, feedback)
	if err != nil {
		c.respondError(err, "error revisando entrega")
		return
	}

	resp := internalhelpers.Ok(result)
	resp.Message = "Entrega revisada"
	c.writeJSON(resp.Status, resp)
}
