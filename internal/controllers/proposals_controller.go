package controllers

import (
	"github.com/udistrital/marketplace_mid/controllers/errorhandler"
	internaldto "github.com/udistrital/marketplace_mid/internal/dto"
	internalhelpers "github.com/udistrital/marketplace_mid/internal/helpers"
	internalservices "github.com/udistrital/marketplace_mid/internal/services"
)

// ProposalsController gestiona las propuestas de un posting.
type ProposalsController struct {
	lifecycleController
}

// GetListado lista las propuestas visibles para el actor.
// @Summary Listar propuestas del posting
// @Description El dueño del posting ve todas; un trabajador solo la suya.
// @Tags Propuestas
// @Produce json
// @Param id path string true "Id del posting"
// @Param page query int false "Página" Example(1)
// @Param size query int false "Tamaño de página" Example(20)
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 404 {object} internaldto.APIResponseDTO
func (c *ProposalsController) GetListado() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor()
	if !ok {
		return
	}
	postingID, ok := c.pathID(":id")
	if !ok {
		return
	}

	proposals, err := internalservices.Lifecycle().ListProposals(c.Ctx.Request.Context(), postingID, actor)
	if err != nil {
		c.respondError(err, "error consultando propuestas")
		return
	}

	page, size := c.page()
	resp := internalhelpers.Ok(internalhelpers.Paginate(proposals, page, size))
	c.writeJSON(resp.Status, resp)
}

// PostCrear registra la propuesta del trabajador autenticado.
// @Summary Proponerse a un posting
// @Description Ejemplo de request: {"cover_letter":"Tengo experiencia en Go"}
// @Tags Propuestas
// @Accept json
// @Produce json
// @Param id path string true "Id del posting"
// @Param body body internaldto.ProposalCreate true "Propuesta"
// @Success 201 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 404 {object} internaldto.APIResponseDTO
// @Failure 409 {object} internaldto.APIResponseDTO
func (c *ProposalsController) PostCrear() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor(internalservices.RoleWorker)
	if !ok {
		return
	}
	postingID, ok := c.pathID(":id")
	if !ok {
		return
	}
	var body internaldto.ProposalCreate
	if !c.parseBody(&body) {
		return
	}

	result, err := internalservices.Lifecycle().CreateProposal(c.Ctx.Request.Context(), postingID, actor.Id, body.CoverLetter)
	if err != nil {
		c.respondError(err, "error registrando propuesta")
		return
	}

	resp := internalhelpers.Created(result)
	c.writeJSON(resp.Status, resp)
}

// PutAceptar adjudica el posting a la propuesta y descarta las demás pendientes.
// @Summary Aceptar propuesta
// @Tags Propuestas
// @Produce json
// @Param id path string true "Id del posting"
// @Param proposalId path string true "Id de la propuesta"
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 404 {object} internaldto.APIResponseDTO
// @Failure 409 {object} internaldto.APIResponseDTO
// @Failure 503 {object} internaldto.APIResponseDTO
func (c *ProposalsController) PutAceptar() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor(internalservices.RoleClient)
	if !ok {
		return
	}
	postingID, ok := c.pathID(":id")
	if !ok {
		return
	}
	proposalID, ok := c.pathID(":proposalId")
	if !ok {
		return
	}

	result, err := internalservices.Lifecycle().AcceptProposal(c.Ctx.Request.Context(), postingID, proposalID, actor.Id)
	if err != nil {
		c.respondError(err, "error aceptando propuesta")
		return
	}

	resp := internalhelpers.Ok(result)
	resp.Message = "Propuesta aceptada"
	c.writeJSON(resp.Status, resp)
}

// PutRechazar descarta una propuesta pendiente.
// @Summary Rechazar propuesta
// @Tags Propuestas
// @Produce json
// @Param id path string true "Id del posting"
// @Param proposalId path string true "Id de la propuesta"
// @Success 200 {object} internaldto.APIResponseDTO
// @Failure 403 {object} internaldto.APIResponseDTO
// @Failure 404 {object} internaldto.APIResponseDTO
// @Failure 409 {object} internaldto.APIResponseDTO
func (c *ProposalsController) PutRechazar() {
	defer errorhandler.HandlePanic(&c.Controller)
	actor, ok := c.requireActor(internalservices.RoleClient)
	if !ok {
		return
	}
	postingID, ok := c.pathID(":id")
	if !ok {
		return
	}
	proposalID, ok := c.pathID(":proposalId")
	if !ok {
		return
	}

	result, err := internalservices.Lifecycle().RejectProposal(c.Ctx.Request.Context(), postingID, proposalID, actor.Id)
	if err != nil {
		c.respondError(err, "error rechazando propuesta")
		return
	}

	resp := internalhelpers.Ok(result)
	resp.Message = "Propuesta rechazada"
	c.writeJSON(resp.Status, resp)
}
