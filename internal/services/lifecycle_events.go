package services

import (
	"context"
	"errors"
	"time"

	"github.com/beego/beego/v2/core/logs"

	internalhelpers "github.com/udistrital/marketplace_mid/internal/helpers"
)

// EventType identifica el evento lógico emitido tras una operación exitosa.
type EventType string

const (
	EventPostingCreated        EventType = "PostingCreated"
	EventPostingStatusChanged  EventType = "PostingStatusChanged"
	EventProposalStatusChanged EventType = "ProposalStatusChanged"
	EventDeliverableCreated    EventType = "DeliverableCreated"
	EventDeliverableReviewed   EventType = "DeliverableReviewed"
	EventDeliverableDeleted    EventType = "DeliverableDeleted"
)

// LifecycleEvent describe el estado resultante de una operación.
type LifecycleEvent struct {
	Type              EventType `json:"type"`
	PostingId         string    `json:"posting_id"`
	ProposalId        string    `json:"proposal_id,omitempty"`
	DeliverableId     string    `json:"deliverable_id,omitempty"`
	PostingStatus     string    `json:"posting_status,omitempty"`
	ProposalStatus    string    `json:"proposal_status,omitempty"`
	DeliverableStatus string    `json:"deliverable_status,omitempty"`
	Version           int       `json:"version,omitempty"`
	ActorId           string    `json:"actor_id"`
	RecipientId       string    `json:"recipient_id,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// EventPublisher entrega eventos a un colaborador externo. Sus errores nunca revierten estado.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}

// PublisherFunc adapta una función a EventPublisher.
type PublisherFunc func(ctx context.Context, event LifecycleEvent) error

func (f PublisherFunc) Publish(ctx context.Context, event LifecycleEvent) error {
	return f(ctx, event)
}

// LogPublisher deja constancia de cada evento en el log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event LifecycleEvent) error {
	logs.Info("evento %s posting=%s proposal=%s deliverable=%s v%d actor=%s",
		event.Type, event.PostingId, event.ProposalId, event.DeliverableId, event.Version, event.ActorId)
	return nil
}

// NotificationPublisher envía el evento al destinatario vía el servicio de notificaciones.
type NotificationPublisher struct {
	Client *internalhelpers.NotificacionesClient
}

var eventTemplates = map[EventType]string{
	EventPostingCreated:        "posting_creado",
	EventPostingStatusChanged:  "posting_estado",
	EventProposalStatusChanged: "propuesta_estado",
	EventDeliverableCreated:    "entrega_recibida",
	EventDeliverableReviewed:   "entrega_revisada",
	EventDeliverableDeleted:    "entrega_eliminada",
}

func (p NotificationPublisher) Publish(ctx context.Context, event LifecycleEvent) error {
	if event.RecipientId == "" || !p.Client.Enabled() {
		return nil
	}
	return p.Client.Send(ctx, event.RecipientId, string(event.Type), eventTemplates[event.Type], event)
}

type fanoutPublisher []EventPublisher

func (f fanoutPublisher) Publish(ctx context.Context, event LifecycleEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FanoutPublisher publica en todos los destinos y agrega sus errores.
func FanoutPublisher(publishers ...EventPublisher) EventPublisher {
	return fanoutPublisher(publishers)
}
