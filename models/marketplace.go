package models

import "time"

// Posting representa un trabajo publicado por un cliente.
type Posting struct {
	Id                string        `json:"id"`
	ClientId          string        `json:"client_id"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Status            PostingStatus `json:"status"`
	ProposalCount     int           `json:"proposal_count"`
	WinningProposalId string        `json:"winning_proposal_id,omitempty"`
	LastVersion       int           `json:"last_version"`
	Revision          int64         `json:"revision"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Proposal es la oferta de un trabajador sobre exactamente un Posting.
type Proposal struct {
	Id          string         `json:"id"`
	PostingId   string         `json:"posting_id"`
	WorkerId    string         `json:"worker_id"`
	CoverLetter string         `json:"cover_letter,omitempty"`
	Status      ProposalStatus `json:"status"`
	Revision    int64          `json:"revision"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Feedback es la nota estructurada que deja el cliente al no aprobar una entrega.
type Feedback struct {
	Message          string   `json:"message"`
	RequestedChanges []string `json:"requested_changes,omitempty"`
}

// Deliverable es una versión de trabajo entregada sobre la propuesta ganadora.
// WorkerId y ClientId se copian al crearla para autorizar sin consultar la propuesta.
type Deliverable struct {
	Id         string            `json:"id"`
	PostingId  string            `json:"posting_id"`
	ProposalId string            `json:"proposal_id"`
	WorkerId   string            `json:"worker_id"`
	ClientId   string            `json:"client_id"`
	Version    int               `json:"version"`
	Content    string            `json:"content"`
	Status     DeliverableStatus `json:"status"`
	Feedback   *Feedback         `json:"feedback,omitempty"`
	ApprovedAt *time.Time        `json:"approved_at,omitempty"`
	ApprovedBy string            `json:"approved_by,omitempty"`
	ReviewedAt *time.Time        `json:"reviewed_at,omitempty"`
	Revision   int64             `json:"revision"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// EntityKind identifica el tipo de registro en la bitácora de estados.
type EntityKind string

const (
	KindPosting     EntityKind = "posting"
	KindProposal    EntityKind = "proposal"
	KindDeliverable EntityKind = "deliverable"
)

// StatusChange es una entrada de la bitácora de transiciones.
type StatusChange struct {
	Id         string     `json:"id"`
	PostingId  string     `json:"posting_id"`
	EntityKind EntityKind `json:"entity_kind"`
	EntityId   string     `json:"entity_id"`
	FromStatus string     `json:"from_status,omitempty"`
	ToStatus   string     `json:"to_status"`
	ActorId    string     `json:"actor_id"`
	Comment    string     `json:"comment,omitempty"`
	At         time.Time  `json:"at"`
}
