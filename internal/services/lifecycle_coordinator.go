package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/beego/beego/v2/core/logs"
	"github.com/google/uuid"

	"github.com/udistrital/marketplace_mid/helpers"
	"github.com/udistrital/marketplace_mid/internal/clients"
	internalhelpers "github.com/udistrital/marketplace_mid/internal/helpers"
	"github.com/udistrital/marketplace_mid/models"
)

const (
	defaultLockTimeout        = 5 * time.Second
	defaultMaxConflictRetries = 3
)

// Coordinator mantiene consistentes Posting, propuesta ganadora y entregas.
// Toda escritura de estado pasa por aquí; cada operación corre bajo el lock de su
// posting y sus escrituras se compensan en bloque si alguna falla.
type Coordinator struct {
	store       clients.EntityStore
	locks       PostingLocker
	versions    *VersionAllocator
	publisher   EventPublisher
	lockTimeout time.Duration
	maxRetries  int
	now         func() time.Time
	newID       func() string
}

// Option ajusta un Coordinator en su construcción.
type Option func(*Coordinator)

func WithLocker(l PostingLocker) Option { return func(c *Coordinator) { c.locks = l } }

func WithPublisher(p EventPublisher) Option { return func(c *Coordinator) { c.publisher = p } }

func WithLockTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.lockTimeout = d
		}
	}
}

func WithMaxConflictRetries(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

func WithIDGenerator(gen func() string) Option { return func(c *Coordinator) { c.newID = gen } }

// NewCoordinator construye el coordinador. Por defecto usa un LockRegistry local y LogPublisher.
func NewCoordinator(store clients.EntityStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       store,
		locks:       NewLockRegistry(),
		versions:    NewVersionAllocator(store),
		publisher:   LogPublisher{},
		lockTimeout: defaultLockTimeout,
		maxRetries:  defaultMaxConflictRetries,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// outcome agrupa lo que se emite después de un commit exitoso.
type outcome struct {
	events  []LifecycleEvent
	changes []models.StatusChange
}

func (o *outcome) change(postingID string, kind models.EntityKind, id, from, to, actor, comment string, at time.Time) {
	o.changes = append(o.changes, models.StatusChange{
		PostingId:  postingID,
		EntityKind: kind,
		EntityId:   id,
		FromStatus: from,
		ToStatus:   to,
		ActorId:    actor,
		Comment:    comment,
		At:         at,
	})
}

// execute corre fn bajo el lock del posting, reintentando ante conflictos de revisión.
func (c *Coordinator) execute(ctx context.Context, op, postingID string, fn func(ctx context.Context) (*outcome, error)) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = string(helpers.KindOf(err))
			if result == "" {
				result = "error"
			}
		}
		internalhelpers.LifecycleOperations.WithLabelValues(op, result).Inc()
	}()

	start := time.Now()
	lockCtx, cancel := context.WithTimeout(ctx, c.lockTimeout)
	unlock, lockErr := c.locks.Lock(lockCtx, postingID)
	cancel()
	internalhelpers.ObserveLockWait(start)
	if lockErr != nil {
		return helpers.Unavailable("el posting está ocupado, intente de nuevo", lockErr)
	}

	var out *outcome
	for attempt := 0; ; attempt++ {
		out, err = fn(ctx)
		if err == nil {
			break
		}
		var ce *commitError
		if !errors.As(err, &ce) {
			unlock()
			return err
		}
		if !ce.retryable() {
			unlock()
			return helpers.AsAppError(err, "no fue posible persistir los cambios")
		}
		if attempt >= c.maxRetries {
			unlock()
			return helpers.Conflict("el posting cambió concurrentemente, reintentos agotados", err)
		}
		internalhelpers.LifecycleConflictRetries.WithLabelValues(op).Inc()
		logs.Warn("%s posting=%s conflicto de revisión, reintento %d: %v", op, postingID, attempt+1, err)
	}
	unlock()

	c.afterCommit(ctx, out)
	return nil
}

// afterCommit registra la bitácora y publica eventos; sus fallas solo se registran.
func (c *Coordinator) afterCommit(ctx context.Context, out *outcome) {
	if out == nil {
		return
	}
	for i := range out.changes {
		change := out.changes[i]
		change.Id = c.newID()
		if err := c.store.AddStatusChange(ctx, &change); err != nil {
			logs.Warn("no fue posible registrar el cambio de estado de %s %s: %v", change.EntityKind, change.EntityId, err)
		}
	}
	for _, event := range out.events {
		if err := c.publisher.Publish(ctx, event); err != nil {
			internalhelpers.EventsPublished.WithLabelValues(string(event.Type), "error").Inc()
			logs.Warn("no fue posible publicar el evento %s del posting %s: %v", event.Type, event.PostingId, err)
			continue
		}
		internalhelpers.EventsPublished.WithLabelValues(string(event.Type), "ok").Inc()
	}
}

func (c *Coordinator) loadPosting(ctx context.Context, id string) (*models.Posting, error) {
	p, err := c.store.GetPosting(ctx, id)
	if errors.Is(err, clients.ErrNotFound) {
		return nil, helpers.NotFound("posting no encontrado")
	}
	if err != nil {
		return nil, helpers.AsAppError(err, "error consultando posting")
	}
	return p, nil
}

func (c *Coordinator) loadProposal(ctx context.Context, id string) (*models.Proposal, error) {
	p, err := c.store.GetProposal(ctx, id)
	if errors.Is(err, clients.ErrNotFound) {
		return nil, helpers.NotFound("propuesta no encontrada")
	}
	if err != nil {
		return nil, helpers.AsAppError(err, "error consultando propuesta")
	}
	return p, nil
}

func (c *Coordinator) loadDeliverable(ctx context.Context, id string) (*models.Deliverable, error) {
	d, err := c.store.GetDeliverable(ctx, id)
	if errors.Is(err, clients.ErrNotFound) {
		return nil, helpers.NotFound("entrega no encontrada")
	}
	if err != nil {
		return nil, helpers.AsAppError(err, "error consultando entrega")
	}
	return d, nil
}

func requireID(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return helpers.InvalidArgument(name + " requerido")
	}
	return nil
}

// CreatePosting publica un trabajo nuevo en estado open.
func (c *Coordinator) CreatePosting(ctx context.Context, clientID, title, description string) (*models.Posting, error) {
	if err := requireID(clientID, "client_id"); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, helpers.InvalidArgument("title requerido")
	}

	now := c.now()
	posting := &models.Posting{
		Id:          c.newID(),
		ClientId:    clientID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      models.PostingOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := c.store.CreatePosting(ctx, posting)
	if err != nil {
		internalhelpers.LifecycleOperations.WithLabelValues("create_posting", "error").Inc()
		return nil, helpers.AsAppError(err, "error creando posting")
	}
	internalhelpers.LifecycleOperations.WithLabelValues("create_posting", "ok").Inc()

	out := &outcome{events: []LifecycleEvent{{
		Type:          EventPostingCreated,
		PostingId:     created.Id,
		PostingStatus: string(created.Status),
		ActorId:       clientID,
		OccurredAt:    now,
	}}}
	out.change(created.Id, models.KindPosting, created.Id, "", string(created.Status), clientID, "", now)
	c.afterCommit(ctx, out)
	return created, nil
}

// CreateProposal registra la propuesta de un trabajador sobre un posting abierto.
func (c *Coordinator) CreateProposal(ctx context.Context, postingID, workerID, coverLetter string) (*models.Proposal, error) {
	if err := requireID(postingID, "posting_id"); err != nil {
		return nil, err
	}
	if err := requireID(workerID, "worker_id"); err != nil {
		return nil, err
	}

	var result models.Proposal
	err := c.execute(ctx, "create_proposal", postingID, func(ctx context.Context) (*outcome, error) {
		posting, err := c.loadPosting(ctx, postingID)
		if err != nil {
			return nil, err
		}
		if posting.ClientId == workerID {
			return nil, helpers.Forbidden("el cliente no puede postularse a su propio posting")
		}
		if posting.Status != models.PostingOpen {
			return nil, helpers.InvalidState("el posting no recibe propuestas")
		}
		existing, err := c.store.ListProposals(ctx, clients.ProposalFilter{PostingId: postingID, WorkerId: workerID})
		if err != nil {
			return nil, helpers.AsAppError(err, "error consultando propuestas")
		}
		if len(existing) > 0 {
			return nil, helpers.InvalidState("ya existe una propuesta del trabajador en este posting")
		}

		now := c.now()
		proposal := models.Proposal{
			Id:          c.newID(),
			PostingId:   postingID,
			WorkerId:    workerID,
			CoverLetter: strings.TrimSpace(coverLetter),
			Status:      models.ProposalPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		counted := *posting
		counted.ProposalCount++
		counted.UpdatedAt = now

		// El contador va primero: la creación no tiene compensación y debe ser el último paso.
		plan := &commitPlan{}
		var savedPosting models.Posting
		stagePostingUpdate(plan, c.store, *posting, counted, &savedPosting)
		stageProposalCreate(plan, c.store, proposal, &result)
		if err := plan.execute(ctx); err != nil {
			if errors.Is(err, clients.ErrDuplicate) {
				return nil, helpers.InvalidState("ya existe una propuesta del trabajador en este posting")
			}
			return nil, err
		}

		out := &outcome{events: []LifecycleEvent{{
			Type:           EventProposalStatusChanged,
			PostingId:      postingID,
			ProposalId:     result.Id,
			PostingStatus:  string(savedPosting.Status),
			ProposalStatus: string(result.Status),
			ActorId:        workerID,
			RecipientId:    posting.ClientId,
			OccurredAt:     now,
		}}}
		out.change(postingID, models.KindProposal, result.Id, "", string(result.Status), workerID, "", now)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AcceptProposal adjudica el posting a una propuesta pendiente y descarta las demás pendientes.
func (c *Coordinator) AcceptProposal(ctx context.Context, postingID, proposalID, clientID string) (*models.Proposal, error) {
	for _, check := range [][2]string{{postingID, "posting_id"}, {proposalID, "proposal_id"}, {clientID, "client_id"}} {
		if err := requireID(check[0], check[1]); err != nil {
			return nil, err
		}
	}

	var result models.Proposal
	err := c.execute(ctx, "accept_proposal", postingID, func(ctx context.Context) (*outcome, error) {
		posting, err := c.loadPosting(ctx, postingID)
		if err != nil {
			return nil, err
		}
		if posting.ClientId != clientID {
			return nil, helpers.Forbidden("no autorizado para gestionar este posting")
		}
		proposal, err := c.loadProposal(ctx, proposalID)
		if err != nil {
			return nil, err
		}
		if proposal.PostingId != posting.Id {
			return nil, helpers.NotFound("propuesta no encontrada en el posting")
		}
		nextPosting, err := postingTransition(posting.Status, eventAccept)
		if err != nil {
			return nil, err
		}
		nextProposal, err := proposalTransition(proposal.Status, eventAccept)
		if err != nil {
			return nil, err
		}
		pending, err := c.store.ListProposals(ctx, clients.ProposalFilter{PostingId: posting.Id, Status: models.ProposalPending})
		if err != nil {
			return nil, helpers.AsAppError(err, "error consultando propuestas")
		}

		now := c.now()
		out := &outcome{}
		plan := &commitPlan{}

		accepted := *proposal
		accepted.Status = nextProposal
		accepted.UpdatedAt = now
		stageProposalUpdate(plan, c.store, *proposal, accepted, &result)
		out.change(posting.Id, models.KindProposal, proposal.Id, string(proposal.Status), string(nextProposal), clientID, "", now)

		superseded := 0
		for _, sibling := range pending {
			if sibling.Id == proposal.Id {
				continue
			}
			next, err := proposalTransition(sibling.Status, eventSupersede)
			if err != nil {
				return nil, err
			}
			rejected := sibling
			rejected.Status = next
			rejected.UpdatedAt = now
			stageProposalUpdate(plan, c.store, sibling, rejected, new(models.Proposal))
			out.change(posting.Id, models.KindProposal, sibling.Id, string(sibling.Status), string(next), clientID, "otra propuesta fue aceptada", now)
			out.events = append(out.events, LifecycleEvent{
				Type:           EventProposalStatusChanged,
				PostingId:      posting.Id,
				ProposalId:     sibling.Id,
				PostingStatus:  string(nextPosting),
				ProposalStatus: string(next),
				ActorId:        clientID,
				RecipientId:    sibling.WorkerId,
				OccurredAt:     now,
			})
			superseded++
		}

		started := *posting
		started.Status = nextPosting
		started.WinningProposalId = proposal.Id
		started.ProposalCount -= superseded
		if started.ProposalCount < 1 {
			started.ProposalCount = 1
		}
		started.UpdatedAt = now
		var savedPosting models.Posting
		stagePostingUpdate(plan, c.store, *posting, started, &savedPosting)
		out.change(posting.Id, models.KindPosting, posting.Id, string(posting.Status), string(nextPosting), clientID, "", now)

		if err := plan.execute(ctx); err != nil {
			return nil, err
		}

		// El evento principal va primero; los descartes de hermanas le siguen.
		out.events = append([]LifecycleEvent{{
			Type:           EventPostingStatusChanged,
			PostingId:      posting.Id,
			ProposalId:     result.Id,
			PostingStatus:  string(savedPosting.Status),
			ProposalStatus: string(result.Status),
			ActorId:        clientID,
			RecipientId:    result.WorkerId,
			OccurredAt:     now,
		}}, out.events...)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectProposal descarta una propuesta pendiente sin afectar el estado del posting.
func (c *Coordinator) RejectProposal(ctx context.Context, postingID, proposalID, clientID string) (*models.Proposal, error) {
	for _, check := range [][2]string{{postingID, "posting_id"}, {proposalID, "proposal_id"}, {clientID, "client_id"}} {
		if err := requireID(check[0], check[1]); err != nil {
			return nil, err
		}
	}

	var result models.Proposal
	err := c.execute(ctx, "reject_proposal", postingID, func(ctx context.Context) (*outcome, error) {
		posting, err := c.loadPosting(ctx, postingID)
		if err != nil {
			return nil, err
		}
		if posting.ClientId != clientID {
			return nil, helpers.Forbidden("no autorizado para gestionar este posting")
		}
		proposal, err := c.loadProposal(ctx, proposalID)
		if err != nil {
			return nil, err
		}
		if proposal.PostingId != posting.Id {
			return nil, helpers.NotFound("propuesta no encontrada en el posting")
		}
		next, err := proposalTransition(proposal.Status, eventDecline)
		if err != nil {
			return nil, err
		}

		now := c.now()
		plan := &commitPlan{}
		declined := *proposal
		declined.Status = next
		declined.UpdatedAt = now
		stageProposalUpdate(plan, c.store, *proposal, declined, &result)

		counted := *posting
		if counted.ProposalCount > 0 {
			counted.ProposalCount--
		}
		counted.UpdatedAt = now
		stagePostingUpdate(plan, c.store, *posting, counted, new(models.Posting))

		if err := plan.execute(ctx); err != nil {
			return nil, err
		}

		out := &outcome{events: []LifecycleEvent{{
			Type:           EventProposalStatusChanged,
			PostingId:      posting.Id,
			ProposalId:     result.Id,
			PostingStatus:  string(posting.Status),
			ProposalStatus: string(result.Status),
			ActorId:        clientID,
			RecipientId:    result.WorkerId,
			OccurredAt:     now,
		}}}
		out.change(posting.Id, models.KindProposal, proposal.Id, string(proposal.Status), string(next), clientID, "", now)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitDeliverable registra una nueva versión de trabajo y pone el posting en revisión.
func (c *Coordinator) SubmitDeliverable(ctx context.Context, postingID, workerID, content string) (*models.Deliverable, error) {
	if err := requireID(postingID, "posting_id"); err != nil {
		return nil, err
	}
	if err := requireID(workerID, "worker_id"); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, helpers.InvalidArgument("content requerido")
	}

	var result models.Deliverable
	err := c.execute(ctx, "submit_deliverable", postingID, func(ctx context.Context) (*outcome, error) {
		posting, err := c.loadPosting(ctx, postingID)
		if err != nil {
			return nil, err
		}
		found, err := c.store.ListProposals(ctx, clients.ProposalFilter{PostingId: postingID, WorkerId: workerID})
		if err != nil {
			return nil, helpers.AsAppError(err, "error consultando propuestas")
		}
		if len(found) == 0 {
			return nil, helpers.Forbidden("el trabajador no tiene propuesta en este posting")
		}
		proposal := found[0]
		// Solo la ganadora puede reenviar tras un rechazo; las hermanas descartadas al aceptar no.
		if proposal.Status == models.ProposalRejected && posting.WinningProposalId != proposal.Id {
			return nil, helpers.InvalidState("la propuesta fue descartada")
		}
		event := eventSubmit
		if proposal.Status == models.ProposalUnderReview {
			// Solo se admite si la entrega en revisión fue eliminada.
			pending, err := c.hasDeliverableUnderReview(ctx, posting.Id)
			if err != nil {
				return nil, err
			}
			if pending {
				return nil, helpers.InvalidState("ya hay una entrega en revisión")
			}
			event = eventResubmit
		}
		nextProposal, err := proposalTransition(proposal.Status, event)
		if err != nil {
			return nil, err
		}
		nextPosting, err := postingTransition(posting.Status, event)
		if err != nil {
			return nil, err
		}
		initial, err := deliverableTransition("", event)
		if err != nil {
			return nil, err
		}
		version, err := c.versions.Next(ctx, posting)
		if err != nil {
			return nil, err
		}

		now := c.now()
		plan := &commitPlan{}
		deliverable := models.Deliverable{
			Id:         c.newID(),
			PostingId:  posting.Id,
			ProposalId: proposal.Id,
			WorkerId:   workerID,
			ClientId:   posting.ClientId,
			Version:    version,
			Content:    content,
			Status:     initial,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		stageDeliverableCreate(plan, c.store, deliverable, &result)

		submitted := proposal
		submitted.Status = nextProposal
		submitted.UpdatedAt = now
		stageProposalUpdate(plan, c.store, proposal, submitted, new(models.Proposal))

		reviewing := *posting
		reviewing.Status = nextPosting
		reviewing.LastVersion = version
		reviewing.UpdatedAt = now
		stagePostingUpdate(plan, c.store, *posting, reviewing, new(models.Posting))

		if err := plan.execute(ctx); err != nil {
			if errors.Is(err, clients.ErrDuplicate) {
				// Otra instancia tomó la versión; se trata como conflicto de revisión.
				return nil, &commitError{step: "deliverable", err: clients.ErrConflict}
			}
			return nil, err
		}

		out := &outcome{events: []LifecycleEvent{{
			Type:              EventDeliverableCreated,
			PostingId:         posting.Id,
			ProposalId:        proposal.Id,
			DeliverableId:     result.Id,
			PostingStatus:     string(nextPosting),
			ProposalStatus:    string(nextProposal),
			DeliverableStatus: string(result.Status),
			Version:           result.Version,
			ActorId:           workerID,
			RecipientId:       posting.ClientId,
			OccurredAt:        now,
		}}}
		out.change(posting.Id, models.KindDeliverable, result.Id, "", string(result.Status), workerID, "", now)
		out.change(posting.Id, models.KindProposal, proposal.Id, string(proposal.Status), string(nextProposal), workerID, "", now)
		out.change(posting.Id, models.KindPosting, posting.Id, string(posting.Status), string(nextPosting), workerID, "", now)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Coordinator) hasDeliverableUnderReview(ctx context.Context, postingID string) (bool, error) {
	deliverables, err := c.store.ListDeliverables(ctx, postingID)
	if err != nil {
		return false, helpers.AsAppError(err, "error consultando entregas")
	}
	for _, d := range deliverables {
		if d.Status == models.DeliverableUnderReview {
			return true, nil
		}
	}
	return false, nil
}

// ReviewDeliverable aplica la decisión del cliente sobre una entrega en revisión.
func (c *Coordinator) ReviewDeliverable(ctx context.Context, deliverableID, clientID string, decision models.ReviewDecision, feedback *models.Feedback) (*models.Deliverable, error) {
	if err := requireID(deliverableID, "deliverable_id"); err != nil {
		return nil, err
	}
	if err := requireID(clientID, "client_id"); err != nil {
		return nil, err
	}
	event, err := decisionEvent(decision)
	if err != nil {
		return nil, err
	}

	// El posting de una entrega no cambia; se lee antes para saber qué lock tomar.
	target, err := c.loadDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, err
	}

	var result models.Deliverable
	err = c.execute(ctx, "review_deliverable", target.PostingId, func(ctx context.Context) (*outcome, error) {
		deliverable, err := c.loadDeliverable(ctx, deliverableID)
		if err != nil {
			return nil, err
		}
		if deliverable.ClientId != clientID {
			return nil, helpers.Forbidden("no autorizado para revisar esta entrega")
		}
		nextDeliverable, err := deliverableTransition(deliverable.Status, event)
		if err != nil {
			return nil, err
		}
		posting, err := c.loadPosting(ctx, deliverable.PostingId)
		if err != nil {
			return nil, err
		}
		proposal, err := c.loadProposal(ctx, deliverable.ProposalId)
		if err != nil {
			return nil, err
		}
		nextProposal, err := proposalTransition(proposal.Status, event)
		if err != nil {
			return nil, err
		}
		nextPosting, err := postingTransition(posting.Status, event)
		if err != nil {
			return nil, err
		}

		now := c.now()
		plan := &commitPlan{}
		reviewed := *deliverable
		reviewed.Status = nextDeliverable
		reviewed.ReviewedAt = &now
		reviewed.UpdatedAt = now
		comment := ""
		if event == eventApprove {
			approvedAt := now
			reviewed.ApprovedAt = &approvedAt
			reviewed.ApprovedBy = clientID
		} else if feedback != nil {
			note := *feedback
			note.Message = strings.TrimSpace(note.Message)
			reviewed.Feedback = &note
			comment = note.Message
		}
		stageDeliverableUpdate(plan, c.store, *deliverable, reviewed, &result)

		updatedProposal := *proposal
		updatedProposal.Status = nextProposal
		updatedProposal.UpdatedAt = now
		stageProposalUpdate(plan, c.store, *proposal, updatedProposal, new(models.Proposal))

		updatedPosting := *posting
		updatedPosting.Status = nextPosting
		updatedPosting.UpdatedAt = now
		stagePostingUpdate(plan, c.store, *posting, updatedPosting, new(models.Posting))

		if err := plan.execute(ctx); err != nil {
			return nil, err
		}

		out := &outcome{events: []LifecycleEvent{{
			Type:              EventDeliverableReviewed,
			PostingId:         posting.Id,
			ProposalId:        proposal.Id,
			DeliverableId:     result.Id,
			PostingStatus:     string(nextPosting),
			ProposalStatus:    string(nextProposal),
			DeliverableStatus: string(result.Status),
			Version:           result.Version,
			ActorId:           clientID,
			RecipientId:       result.WorkerId,
			OccurredAt:        now,
		}}}
		out.change(posting.Id, models.KindDeliverable, result.Id, string(deliverable.Status), string(nextDeliverable), clientID, comment, now)
		out.change(posting.Id, models.KindProposal, proposal.Id, string(proposal.Status), string(nextProposal), clientID, "", now)
		out.change(posting.Id, models.KindPosting, posting.Id, string(posting.Status), string(nextPosting), clientID, "", now)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteDeliverable elimina una entrega no aprobada. No revierte el estado del posting ni de la propuesta.
func (c *Coordinator) DeleteDeliverable(ctx context.Context, deliverableID, workerID string) error {
	if err := requireID(deliverableID, "deliverable_id"); err != nil {
		return err
	}
	if err := requireID(workerID, "worker_id"); err != nil {
		return err
	}
	target, err := c.loadDeliverable(ctx, deliverableID)
	if err != nil {
		return err
	}

	return c.execute(ctx, "delete_deliverable", target.PostingId, func(ctx context.Context) (*outcome, error) {
		deliverable, err := c.loadDeliverable(ctx, deliverableID)
		if err != nil {
			return nil, err
		}
		if deliverable.WorkerId != workerID {
			return nil, helpers.Forbidden("no autorizado para eliminar esta entrega")
		}
		if deliverable.Status == models.DeliverableApproved {
			return nil, helpers.InvalidState("una entrega aprobada no puede eliminarse")
		}
		err = c.store.DeleteDeliverable(ctx, deliverable.Id, deliverable.Revision)
		if err != nil {
			err = settle(ctx, "deliverable "+deliverable.Id, err, func(ctx context.Context) (bool, error) {
				_, readErr := c.store.GetDeliverable(ctx, deliverable.Id)
				if errors.Is(readErr, clients.ErrNotFound) {
					return true, nil
				}
				return false, readErr
			})
		}
		if err != nil {
			if errors.Is(err, clients.ErrConflict) {
				return nil, &commitError{step: "deliverable " + deliverable.Id, err: err}
			}
			return nil, helpers.AsAppError(err, "error eliminando entrega")
		}

		now := c.now()
		out := &outcome{events: []LifecycleEvent{{
			Type:              EventDeliverableDeleted,
			PostingId:         deliverable.PostingId,
			ProposalId:        deliverable.ProposalId,
			DeliverableId:     deliverable.Id,
			DeliverableStatus: string(deliverable.Status),
			Version:           deliverable.Version,
			ActorId:           workerID,
			RecipientId:       deliverable.ClientId,
			OccurredAt:        now,
		}}}
		out.change(deliverable.PostingId, models.KindDeliverable, deliverable.Id, string(deliverable.Status), "deleted", workerID, "", now)
		return out, nil
	})
}
