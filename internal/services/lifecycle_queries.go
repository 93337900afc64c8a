package services

import (
	"context"

	"github.com/udistrital/marketplace_mid/helpers"
	"github.com/udistrital/marketplace_mid/internal/clients"
	"github.com/udistrital/marketplace_mid/models"
)

// Role es el rol con el que actúa un usuario autenticado.
type Role string

const (
	RoleClient Role = "client"
	RoleWorker Role = "worker"
)

// Actor es la identidad resuelta por el gateway; el coordinador confía en ella.
type Actor struct {
	Id   string
	Role Role
}

// GetPosting devuelve el posting; cualquier actor autenticado puede leerlo.
func (c *Coordinator) GetPosting(ctx context.Context, postingID string) (*models.Posting, error) {
	if err := requireID(postingID, "posting_id"); err != nil {
		return nil, err
	}
	return c.loadPosting(ctx, postingID)
}

// ListProposals devuelve todas las propuestas al dueño del posting y solo las propias a los demás.
func (c *Coordinator) ListProposals(ctx context.Context, postingID string, actor Actor) ([]models.Proposal, error) {
	posting, err := c.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	filter := clients.ProposalFilter{PostingId: posting.Id}
	if posting.ClientId != actor.Id {
		filter.WorkerId = actor.Id
	}
	proposals, err := c.store.ListProposals(ctx, filter)
	if err != nil {
		return nil, helpers.AsAppError(err, "error consultando propuestas")
	}
	return proposals, nil
}

// ListDeliverables devuelve las entregas del posting ordenadas por versión.
func (c *Coordinator) ListDeliverables(ctx context.Context, postingID string, actor Actor) ([]models.Deliverable, error) {
	posting, err := c.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	all, err := c.store.ListDeliverables(ctx, posting.Id)
	if err != nil {
		return nil, helpers.AsAppError(err, "error consultando entregas")
	}
	if posting.ClientId == actor.Id {
		return all, nil
	}
	own := make([]models.Deliverable, 0, len(all))
	for _, d := range all {
		if d.WorkerId == actor.Id {
			own = append(own, d)
		}
	}
	return own, nil
}

// GetDeliverable solo es visible para el cliente y el trabajador de la entrega.
func (c *Coordinator) GetDeliverable(ctx context.Context, deliverableID string, actor Actor) (*models.Deliverable, error) {
	if err := requireID(deliverableID, "deliverable_id"); err != nil {
		return nil, err
	}
	d, err := c.loadDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, err
	}
	if d.ClientId != actor.Id && d.WorkerId != actor.Id {
		return nil, helpers.Forbidden("no autorizado para consultar esta entrega")
	}
	return d, nil
}

// ListHistory devuelve la bitácora de cambios de estado; solo para el dueño del posting.
func (c *Coordinator) ListHistory(ctx context.Context, postingID string, actor Actor) ([]models.StatusChange, error) {
	posting, err := c.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if posting.ClientId != actor.Id {
		return nil, helpers.Forbidden("no autorizado para consultar la bitácora")
	}
	changes, err := c.store.ListStatusChanges(ctx, posting.Id)
	if err != nil {
		return nil, helpers.AsAppError(err, "error consultando bitácora")
	}
	return changes, nil
}
