package clients

import (
	"context"
	"errors"

	"github.com/udistrital/marketplace_mid/models"
)

var (
	// ErrNotFound indica que el registro no existe en el almacén.
	ErrNotFound = errors.New("registro no encontrado")
	// ErrConflict indica que la revisión esperada no coincide con la almacenada.
	ErrConflict = errors.New("revisión desactualizada")
	// ErrDuplicate indica que ya existe una propuesta para el par (posting, worker).
	ErrDuplicate = errors.New("registro duplicado")
)

// ProposalFilter restringe el listado de propuestas. Campos vacíos no filtran.
type ProposalFilter struct {
	PostingId string
	WorkerId  string
	Status    models.ProposalStatus
}

// EntityStore es el almacén durable de postings, propuestas y entregas.
// Las actualizaciones son condicionales: fallan con ErrConflict cuando la revisión
// almacenada difiere de expectedRevision, y al aplicarse incrementan Revision en uno.
type EntityStore interface {
	GetPosting(ctx context.Context, id string) (*models.Posting, error)
	CreatePosting(ctx context.Context, p *models.Posting) (*models.Posting, error)
	UpdatePosting(ctx context.Context, p *models.Posting, expectedRevision int64) (*models.Posting, error)

	GetProposal(ctx context.Context, id string) (*models.Proposal, error)
	CreateProposal(ctx context.Context, p *models.Proposal) (*models.Proposal, error)
	UpdateProposal(ctx context.Context, p *models.Proposal, expectedRevision int64) (*models.Proposal, error)
	ListProposals(ctx context.Context, filter ProposalFilter) ([]models.Proposal, error)

	GetDeliverable(ctx context.Context, id string) (*models.Deliverable, error)
	CreateDeliverable(ctx context.Context, d *models.Deliverable) (*models.Deliverable, error)
	UpdateDeliverable(ctx context.Context, d *models.Deliverable, expectedRevision int64) (*models.Deliverable, error)
	DeleteDeliverable(ctx context.Context, id string, expectedRevision int64) error
	ListDeliverables(ctx context.Context, postingID string) ([]models.Deliverable, error)
	// MaxDeliverableVersion devuelve la mayor versión registrada; found es false si no hay entregas.
	MaxDeliverableVersion(ctx context.Context, postingID string) (version int, found bool, err error)

	AddStatusChange(ctx context.Context, change *models.StatusChange) error
	ListStatusChanges(ctx context.Context, postingID string) ([]models.StatusChange, error)
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
