package controllers

import (
	"github.com/udistrital/marketplace_mid/controllers/errorhandler"
	internaldto "github.com/udistrital/marketplace_mid/internal/dto"
	internalhelpers "github.com/udistrital/marketplace_mid/internal/helpers"
	internalservices "github.com/udistrital/marketplace_mid/internal/services"
)

// PostingsController expone la publicación y auditoría de postings.
type PostingsController struct {
	lifecycleController
}

// PostCrear publica un posting nuevo para el cliente autenticado.
// @Summary Crear posting
// @Description Ejemplo de request: {"title":"Landing page","description":"Sitio estático con formulario"}
// @Tags Postings
// @Accept json
// @Produce json
// @Param body body internaldto.PostingCreate true "Datos del posting"
// @Success 201 {object} internaldto.APIResponseDTO
// @Failure 400 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 500 {object} internaldto.APIResponseDTO
func (c *PostingsController) PostCrear() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor(internalservices.RoleClient)
	if !ok {
		return
	}
	var body internaldto.PostingCreate
	if !c.parseBody(&body) {
		return
	}

	result, err := internalservices.Lifecycle().CreatePosting(c.Ctx.Request.Context(), actor.Id, body.Title, body.Description)
	if err != nil {
		c.respondError(err, "error creando posting")
		return
	}

	resp := internalhelpers.Created(result)
	c.writeJSON(resp.Status, resp)
}

// GetById consulta un posting.
// @Summary Consultar posting
// @Tags Postings
// @Produce json
// @Param id path string true "Id del posting"
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 404 {object} internaldto.APIResponseDTO
func (c *PostingsController) GetById() {
	defer errorhandler.HandlePanic(&c.Controller)
	if _, ok := c.requireActor(); !ok {
		return
	}
	postingID, ok := c.pathID(":id")
	if !ok {
		return
	}

	result, err := internalservices.Lifecycle().GetPosting(c.Ctx.Request.Context(), postingID)
	if err != nil {
		c.respondError(err, "error consultando posting")
		return
	}

	resp := internalhelpers.Ok(result)
	c.writeJSON(resp.Status, resp)
}

// GetConsistencia verifica que posting, propuesta ganadora y entregas sean coherentes.
// @Summary Auditar consistencia del posting
// @Description Ejemplo de respuesta: {"Success":true,"Status":200,"Message":"OK","Data":{"posting_id":"p1","posting_status":"in_progress","consistent":true,"violations":[]}}
// @Tags Postings
// @Produce json
// @Param id path string true "Id del posting"
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 404 {object} internaldto.APIResponseDTO
func (c *PostingsController) GetConsistencia() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor(internalservices.RoleClient)
	if !ok {
		return
	}
	postingID, ok := c.pathID(":id")
	if !ok {
		return
	}

	report, err := internalservices.Lifecycle().CheckConsistency(c.Ctx.Request.Context(), postingID, actor)
	if err != nil {
		c.respondError(err, "error auditando posting")
		return
	}

	resp := internalhelpers.Ok(report)
	c.writeJSON(resp.Status, resp)
}

// GetHistorial lista los cambios de estado del posting.
// @Summary Bitácora del posting
// @Tags Postings
// @Produce json
// @Param id path string true "Id del posting"
// @Param page query int false "Página" Example(1)
// @Param size query int false "Tamaño de página" Example(20)
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 404 {object} internaldto.APIResponseDTO
func (c *PostingsController) GetHistorial() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor(internalservices.RoleClient)
	if !ok {
		return
	}
	postingID, ok := c.pathID(":id")
	if !ok {
		return
	}

	changes, err := internalservices.Lifecycle().ListHistory(c.Ctx.Request.Context(), postingID, actor)
	if err != nil {
		c.respondError(err, "error consultando bitácora")
		return
	}

	page, size := c.page()
	resp := internalhelpers.Ok(internalhelpers.Paginate(changes, page, size))
	c.writeJSON(resp.Status, resp)
}
