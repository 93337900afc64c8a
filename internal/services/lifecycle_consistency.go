package services

import (
	"context"
	"fmt"

	"github.com/udistrital/marketplace_mid/helpers"
	"github.com/udistrital/marketplace_mid/internal/clients"
	"github.com/udistrital/marketplace_mid/models"
)

// ConsistencyReport resume el triple (posting, ganadora, última entrega) y sus violaciones.
type ConsistencyReport struct {
	PostingId         string   `json:"posting_id"`
	PostingStatus     string   `json:"posting_status"`
	WinningProposalId string   `json:"winning_proposal_id,omitempty"`
	WinningStatus     string   `json:"winning_status,omitempty"`
	LatestVersion     int      `json:"latest_version,omitempty"`
	LatestStatus      string   `json:"latest_status,omitempty"`
	Consistent        bool     `json:"consistent"`
	Violations        []string `json:"violations"`
}

type stateTriple struct {
	posting     models.PostingStatus
	proposal    models.ProposalStatus
	deliverable models.DeliverableStatus
}

// validTriples son las únicas combinaciones alcanzables por el coordinador.
var validTriples = map[stateTriple]bool{
	{models.PostingOpen, "", ""}:                                                                    true,
	{models.PostingInProgress, models.ProposalInProgress, ""}:                                       true,
	{models.PostingUnderReview, models.ProposalUnderReview, models.DeliverableUnderReview}:          true,
	{models.PostingInProgress, models.ProposalChangesRequested, models.DeliverableChangesRequested}: true,
	{models.PostingInProgress, models.ProposalRejected, models.DeliverableRejected}:                 true,
	{models.PostingCompleted, models.ProposalCompleted, models.DeliverableApproved}:                 true,
}

// CheckConsistency verifica las invariantes entre entidades de un posting. Es de solo lectura.
func (c *Coordinator) CheckConsistency(ctx context.Context, postingID string, actor Actor) (*ConsistencyReport, error) {
	posting, err := c.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if posting.ClientId != actor.Id {
		return nil, helpers.Forbidden("no autorizado para auditar este posting")
	}
	proposals, err := c.store.ListProposals(ctx, clients.ProposalFilter{PostingId: posting.Id})
	if err != nil {
		return nil, helpers.AsAppError(err, "error consultando propuestas")
	}
	deliverables, err := c.store.ListDeliverables(ctx, posting.Id)
	if err != nil {
		return nil, helpers.AsAppError(err, "error consultando entregas")
	}
	return evaluateConsistency(posting, proposals, deliverables), nil
}

func evaluateConsistency(posting *models.Posting, proposals []models.Proposal, deliverables []models.Deliverable) *ConsistencyReport {
	report := &ConsistencyReport{
		PostingId:         posting.Id,
		PostingStatus:     string(posting.Status),
		WinningProposalId: posting.WinningProposalId,
		Violations:        []string{},
	}
	violate := func(format string, args ...interface{}) {
		report.Violations = append(report.Violations, fmt.Sprintf(format, args...))
	}

	var winner *models.Proposal
	winners := 0
	for i := range proposals {
		if proposals[i].Status.IsWinning() {
			winners++
			winner = &proposals[i]
		}
	}
	// Una ganadora rechazada no cuenta como IsWinning; se ubica por el id registrado.
	if winner == nil && posting.WinningProposalId != "" {
		for i := range proposals {
			if proposals[i].Id == posting.WinningProposalId {
				winner = &proposals[i]
			}
		}
	}
	if winners > 1 {
		violate("%d propuestas en estado ganador", winners)
	}
	if winner != nil {
		report.WinningStatus = string(winner.Status)
		if posting.WinningProposalId != winner.Id {
			violate("la propuesta ganadora %s no coincide con la registrada %q", winner.Id, posting.WinningProposalId)
		}
	} else if posting.WinningProposalId != "" {
		violate("la propuesta ganadora registrada %s no existe", posting.WinningProposalId)
	}

	approved := 0
	prev := 0
	var latest *models.Deliverable
	for i := range deliverables {
		d := deliverables[i]
		if d.Version <= prev {
			violate("versión %d repetida o fuera de orden", d.Version)
		}
		if d.Version > posting.LastVersion {
			violate("versión %d supera la última asignada %d", d.Version, posting.LastVersion)
		}
		if d.Status == models.DeliverableApproved {
			approved++
		}
		prev = d.Version
		latest = &deliverables[i]
	}
	if approved > 1 {
		violate("%d entregas aprobadas", approved)
	}

	triple := stateTriple{posting: posting.Status}
	if winner != nil {
		triple.proposal = winner.Status
	}
	if latest != nil {
		report.LatestVersion = latest.Version
		report.LatestStatus = string(latest.Status)
		triple.deliverable = latest.Status
	}
	// Si la última versión fue eliminada el estado de entrega no es observable.
	if latest == nil || latest.Version < posting.LastVersion {
		triple.deliverable = ""
		if !validTriples[triple] && !validWithoutDeliverable(triple) {
			violate("combinación inválida (%s, %s, -)", triple.posting, orDash(string(triple.proposal)))
		}
	} else if !validTriples[triple] {
		violate("combinación inválida (%s, %s, %s)", triple.posting, orDash(string(triple.proposal)), orDash(string(triple.deliverable)))
	}

	report.Consistent = len(report.Violations) == 0
	return report
}

func validWithoutDeliverable(t stateTriple) bool {
	for valid := range validTriples {
		if valid.posting == t.posting && valid.proposal == t.proposal {
			return true
		}
	}
	return false
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
