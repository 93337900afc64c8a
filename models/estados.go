package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PostingStatus es el estado de una convocatoria (posting).
type PostingStatus string

// ProposalStatus es el estado de una propuesta de un trabajador.
type ProposalStatus string

// DeliverableStatus es el estado de una entrega versionada.
type DeliverableStatus string

const (
	PostingOpen        PostingStatus = "open"
	PostingInProgress  PostingStatus = "in_progress"
	PostingUnderReview PostingStatus = "under_review"
	PostingCompleted   PostingStatus = "completed"
)

const (
	ProposalPending          ProposalStatus = "pending"
	ProposalAccepted         ProposalStatus = "accepted"
	ProposalRejected         ProposalStatus = "rejected"
	ProposalInProgress       ProposalStatus = "in_progress"
	ProposalUnderReview      ProposalStatus = "under_review"
	ProposalChangesRequested ProposalStatus = "changes_requested"
	ProposalCompleted        ProposalStatus = "completed"
)

const (
	DeliverableUnderReview      DeliverableStatus = "under_review"
	DeliverableChangesRequested DeliverableStatus = "changes_requested"
	DeliverableApproved         DeliverableStatus = "approved"
	DeliverableRejected         DeliverableStatus = "rejected"
)

// ReviewDecision es la decisión del cliente sobre una entrega.
type ReviewDecision string

const (
	DecisionApprove        ReviewDecision = "approve"
	DecisionRequestChanges ReviewDecision = "request_changes"
	DecisionReject         ReviewDecision = "reject"
)

var postingStatuses = map[PostingStatus]struct{}{
	PostingOpen: {}, PostingInProgress: {}, PostingUnderReview: {}, PostingCompleted: {},
}

var proposalStatuses = map[ProposalStatus]struct{}{
	ProposalPending: {}, ProposalAccepted: {}, ProposalRejected: {}, ProposalInProgress: {},
	ProposalUnderReview: {}, ProposalChangesRequested: {}, ProposalCompleted: {},
}

var deliverableStatuses = map[DeliverableStatus]struct{}{
	DeliverableUnderReview: {}, DeliverableChangesRequested: {}, DeliverableApproved: {}, DeliverableRejected: {},
}

// normalizeCode acepta "UNDER-REVIEW", "under review" y similares.
func normalizeCode(raw string) string {
	code := strings.ToLower(strings.TrimSpace(raw))
	code = strings.ReplaceAll(code, "-", "_")
	return strings.ReplaceAll(code, " ", "_")
}

// ParsePostingStatus normaliza códigos heredados (under-review) al conjunto canónico.
func ParsePostingStatus(raw string) (PostingStatus, bool) {
	s := PostingStatus(normalizeCode(raw))
	_, ok := postingStatuses[s]
	return s, ok
}

// ParseProposalStatus normaliza el estado de una propuesta.
func ParseProposalStatus(raw string) (ProposalStatus, bool) {
	s := ProposalStatus(normalizeCode(raw))
	_, ok := proposalStatuses[s]
	return s, ok
}

// ParseDeliverableStatus normaliza el estado de una entrega.
func ParseDeliverableStatus(raw string) (DeliverableStatus, bool) {
	s := DeliverableStatus(normalizeCode(raw))
	_, ok := deliverableStatuses[s]
	return s, ok
}

// ParseReviewDecision valida la decisión enviada por el cliente.
func ParseReviewDecision(raw string) (ReviewDecision, bool) {
	switch d := ReviewDecision(normalizeCode(raw)); d {
	case DecisionApprove, DecisionRequestChanges, DecisionReject:
		return d, true
	}
	return "", false
}

// IsWinning indica si el estado solo puede pertenecer a la propuesta ganadora.
func (s ProposalStatus) IsWinning() bool {
	switch s {
	case ProposalAccepted, ProposalInProgress, ProposalUnderReview, ProposalChangesRequested, ProposalCompleted:
		return true
	}
	return false
}

// UnmarshalJSON acepta los códigos heredados que aún devuelve el CRUD.
func (s *PostingStatus) UnmarshalJSON(data []byte) error {
	raw, err := unquoteStatus(data)
	if err != nil || raw == "" {
		return err
	}
	parsed, ok := ParsePostingStatus(raw)
	if !ok {
		return fmt.Errorf("estado de posting desconocido: %q", raw)
	}
	*s = parsed
	return nil
}

func (s *ProposalStatus) UnmarshalJSON(data []byte) error {
	raw, err := unquoteStatus(data)
	if err != nil || raw == "" {
		return err
	}
	parsed, ok := ParseProposalStatus(raw)
	if !ok {
		return fmt.Errorf("estado de propuesta desconocido: %q", raw)
	}
	*s = parsed
	return nil
}

func (s *DeliverableStatus) UnmarshalJSON(data []byte) error {
	raw, err := unquoteStatus(data)
	if err != nil || raw == "" {
		return err
	}
	parsed, ok := ParseDeliverableStatus(raw)
	if !ok {
		return fmt.Errorf("estado de entrega desconocido: %q", raw)
	}
	*s = parsed
	return nil
}

func unquoteStatus(data []byte) (string, error) {
	if string(data) == "null" {
		return "", nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	return raw, nil
}
