package routers

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udistrital/marketplace_mid/controllers/errorhandler"
	internalcontrollers "github.com/udistrital/marketplace_mid/internal/controllers"

	beego "github.com/beego/beego/v2/server/web"
)

func init() {
	// Manejador de errores
	beego.ErrorController(&errorhandler.ErrorHandlerController{})

	beego.Router("/v1/postings", &internalcontrollers.PostingsController{}, "post:PostCrear")
	beego.Router("/v1/postings/:id", &internalcontrollers.PostingsController{}, "get:GetById")
	beego.Router("/v1/postings/:id/consistency", &internalcontrollers.PostingsController{}, "get:GetConsistencia")
	beego.Router("/v1/postings/:id/history", &internalcontrollers.PostingsController{}, "get:GetHistorial")

	beego.Router("/v1/postings/:id/proposals", &internalcontrollers.ProposalsController{}, "get:GetListado;post:PostCrear")
	beego.Router("/v1/postings/:id/proposals/:proposalId/accept", &internalcontrollers.ProposalsController{}, "put:PutAceptar")
	beego.Router("/v1/postings/:id/proposals/:proposalId/reject", &internalcontrollers.ProposalsController{}, "put:PutRechazar")

	beego.Router("/v1/postings/:id/deliverables", &internalcontrollers.DeliverablesController{}, "get:GetListado;post:PostEntregar")
	beego.Router("/v1/deliverables/:id", &internalcontrollers.DeliverablesController{}, "get:GetById;delete:DeleteEntrega")
	beego.Router("/v1/deliverables/:id/review", &internalcontrollers.DeliverablesController{}, "put:PutRevisar")

	beego.Handler("/metrics", promhttp.Handler())
}
