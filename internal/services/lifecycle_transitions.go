package services

import (
	"fmt"

	"github.com/udistrital/marketplace_mid/helpers"
	"github.com/udistrital/marketplace_mid/models"
)

// lifecycleEvent es el disparador de una transición de estado.
type lifecycleEvent string

const (
	eventAccept         lifecycleEvent = "accept"
	eventDecline        lifecycleEvent = "decline"
	eventSupersede      lifecycleEvent = "supersede"
	eventSubmit         lifecycleEvent = "submit"
	eventResubmit       lifecycleEvent = "resubmit"
	eventApprove        lifecycleEvent = "approve"
	eventRequestChanges lifecycleEvent = "request_changes"
	eventReject         lifecycleEvent = "reject"
)

type transitionKey struct {
	kind  models.EntityKind
	from  string
	event lifecycleEvent
}

// transitionTable es la única fuente de verdad del ciclo de vida.
// Una entrega nace con from vacío. resubmit reemplaza una entrega en revisión que el
// trabajador eliminó; solo se dispara si ya no queda ninguna entrega en revisión.
var transitionTable = map[transitionKey]string{
	{models.KindPosting, string(models.PostingOpen), eventAccept}:                string(models.PostingInProgress),
	{models.KindPosting, string(models.PostingInProgress), eventSubmit}:          string(models.PostingUnderReview),
	{models.KindPosting, string(models.PostingUnderReview), eventResubmit}:       string(models.PostingUnderReview),
	{models.KindPosting, string(models.PostingUnderReview), eventApprove}:        string(models.PostingCompleted),
	{models.KindPosting, string(models.PostingUnderReview), eventRequestChanges}: string(models.PostingInProgress),
	{models.KindPosting, string(models.PostingUnderReview), eventReject}:         string(models.PostingInProgress),

	{models.KindProposal, string(models.ProposalPending), eventAccept}:             string(models.ProposalInProgress),
	{models.KindProposal, string(models.ProposalPending), eventDecline}:            string(models.ProposalRejected),
	{models.KindProposal, string(models.ProposalPending), eventSupersede}:          string(models.ProposalRejected),
	{models.KindProposal, string(models.ProposalInProgress), eventSubmit}:          string(models.ProposalUnderReview),
	{models.KindProposal, string(models.ProposalChangesRequested), eventSubmit}:    string(models.ProposalUnderReview),
	{models.KindProposal, string(models.ProposalRejected), eventSubmit}:            string(models.ProposalUnderReview),
	{models.KindProposal, string(models.ProposalUnderReview), eventResubmit}:       string(models.ProposalUnderReview),
	{models.KindProposal, string(models.ProposalUnderReview), eventApprove}:        string(models.ProposalCompleted),
	{models.KindProposal, string(models.ProposalUnderReview), eventRequestChanges}: string(models.ProposalChangesRequested),
	{models.KindProposal, string(models.ProposalUnderReview), eventReject}:         string(models.ProposalRejected),

	{models.KindDeliverable, "", eventSubmit}:                                            string(models.DeliverableUnderReview),
	{models.KindDeliverable, "", eventResubmit}:                                          string(models.DeliverableUnderReview),
	{models.KindDeliverable, string(models.DeliverableUnderReview), eventApprove}:        string(models.DeliverableApproved),
	{models.KindDeliverable, string(models.DeliverableUnderReview), eventRequestChanges}: string(models.DeliverableChangesRequested),
	{models.KindDeliverable, string(models.DeliverableUnderReview), eventReject}:         string(models.DeliverableRejected),
}

// transition consulta la tabla; un par (estado, evento) ausente es InvalidState.
func transition(kind models.EntityKind, from string, event lifecycleEvent) (string, error) {
	next, ok := transitionTable[transitionKey{kind: kind, from: from, event: event}]
	if !ok {
		state := from
		if state == "" {
			state = "inexistente"
		}
		return "", helpers.InvalidState(fmt.Sprintf("%s en estado %s no admite %s", kind, state, event))
	}
	return next, nil
}

func postingTransition(from models.PostingStatus, event lifecycleEvent) (models.PostingStatus, error) {
	next, err := transition(models.KindPosting, string(from), event)
	return models.PostingStatus(next), err
}

func proposalTransition(from models.ProposalStatus, event lifecycleEvent) (models.ProposalStatus, error) {
	next, err := transition(models.KindProposal, string(from), event)
	return models.ProposalStatus(next), err
}

func deliverableTransition(from models.DeliverableStatus, event lifecycleEvent) (models.DeliverableStatus, error) {
	next, err := transition(models.KindDeliverable, string(from), event)
	return models.DeliverableStatus(next), err
}

func decisionEvent(decision models.ReviewDecision) (lifecycleEvent, error) {
	switch decision {
	case models.DecisionApprove:
		return eventApprove, nil
	case models.DecisionRequestChanges:
		return eventRequestChanges, nil
	case models.DecisionReject:
		return eventReject, nil
	}
	return "", helpers.InvalidArgument(fmt.Sprintf("decisión no soportada: %q", decision))
}
