package dto

// PostingCreate es el cuerpo para publicar un posting.
type PostingCreate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ProposalCreate es el cuerpo de la propuesta de un trabajador.
type ProposalCreate struct {
	CoverLetter string `json:"cover_letter"`
}

// DeliverableSubmit es el cuerpo de una nueva versión de entrega.
type DeliverableSubmit struct {
	Content string `json:"content"`
}

// FeedbackDTO acompaña una revisión que no aprueba.
type FeedbackDTO struct {
	Message          string   `json:"message"`
	RequestedChanges []string `json:"requested_changes,omitempty"`
}

// DeliverableReview describe la decisión del cliente sobre una entrega.
// Decisiones válidas: approve, request_changes, reject.
type DeliverableReview struct {
	Decision string       `json:"decision"`
	Feedback *FeedbackDTO `json:"feedback,omitempty"`
}
