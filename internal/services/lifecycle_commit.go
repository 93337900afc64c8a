package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beego/beego/v2/core/logs"

	"github.com/udistrital/marketplace_mid/internal/clients"
	"github.com/udistrital/marketplace_mid/models"
)

type commitStep struct {
	name  string
	apply func(ctx context.Context) error
	undo  func(ctx context.Context) error
}

// commitPlan aplica escrituras en orden y compensa en orden inverso si alguna falla.
type commitPlan struct {
	steps []commitStep
}

// commitError conserva la causa original y, si la hubo, la falla de compensación.
type commitError struct {
	step        string
	err         error
	rollbackErr error
}

func (e *commitError) Error() string {
	if e.rollbackErr != nil {
		return fmt.Sprintf("paso %s: %v (compensación incompleta: %v)", e.step, e.err, e.rollbackErr)
	}
	return fmt.Sprintf("paso %s: %v", e.step, e.err)
}

func (e *commitError) Unwrap() error { return e.err }

// retryable es cierto solo si la escritura chocó con otra revisión y el estado quedó restaurado.
func (e *commitError) retryable() bool {
	return e.rollbackErr == nil && errors.Is(e.err, clients.ErrConflict)
}

func (p *commitPlan) add(name string, apply, undo func(ctx context.Context) error) {
	p.steps = append(p.steps, commitStep{name: name, apply: apply, undo: undo})
}

func (p *commitPlan) execute(ctx context.Context) error {
	for i, step := range p.steps {
		if err := step.apply(ctx); err != nil {
			return &commitError{step: step.name, err: err, rollbackErr: p.rollback(ctx, i)}
		}
	}
	return nil
}

func (p *commitPlan) rollback(ctx context.Context, applied int) error {
	// La compensación corre aunque la petición original se haya cancelado.
	undoCtx := context.WithoutCancel(ctx)
	var errs []error
	for i := applied - 1; i >= 0; i-- {
		step := p.steps[i]
		if step.undo == nil {
			continue
		}
		if err := step.undo(undoCtx); err != nil {
			logs.Critical("compensación fallida en paso %s: %v", step.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}

// settle resuelve una escritura con resultado ambiguo: un timeout o un 412 pueden llegar
// después de que el CRUD ya la aplicó. Si la relectura muestra el registro escrito, cuenta
// como aplicada; si no, se conserva el error original.
func settle(ctx context.Context, name string, err error, reread func(ctx context.Context) (bool, error)) error {
	if errors.Is(err, clients.ErrNotFound) {
		return err
	}
	applied, readErr := reread(context.WithoutCancel(ctx))
	if readErr != nil || !applied {
		return err
	}
	logs.Warn("escritura %s confirmada al releer tras error: %v", name, err)
	return nil
}

// writtenRevision indica si current es exactamente la escritura esperada sobre expected.
func writtenRevision(current, expected int64, currentAt, wantAt time.Time) bool {
	return current == expected+1 && currentAt.Equal(wantAt)
}

func updatePosting(ctx context.Context, store clients.EntityStore, want models.Posting, expected int64) (*models.Posting, error) {
	out, err := store.UpdatePosting(ctx, &want, expected)
	if err == nil {
		return out, nil
	}
	err = settle(ctx, "posting "+want.Id, err, func(ctx context.Context) (bool, error) {
		current, readErr := store.GetPosting(ctx, want.Id)
		if readErr != nil {
			return false, readErr
		}
		if !writtenRevision(current.Revision, expected, current.UpdatedAt, want.UpdatedAt) ||
			current.Status != want.Status || current.WinningProposalId != want.WinningProposalId ||
			current.LastVersion != want.LastVersion || current.ProposalCount != want.ProposalCount {
			return false, nil
		}
		out = current
		return true, nil
	})
	return out, err
}

func updateProposal(ctx context.Context, store clients.EntityStore, want models.Proposal, expected int64) (*models.Proposal, error) {
	out, err := store.UpdateProposal(ctx, &want, expected)
	if err == nil {
		return out, nil
	}
	err = settle(ctx, "proposal "+want.Id, err, func(ctx context.Context) (bool, error) {
		current, readErr := store.GetProposal(ctx, want.Id)
		if readErr != nil {
			return false, readErr
		}
		if !writtenRevision(current.Revision, expected, current.UpdatedAt, want.UpdatedAt) || current.Status != want.Status {
			return false, nil
		}
		out = current
		return true, nil
	})
	return out, err
}

func updateDeliverable(ctx context.Context, store clients.EntityStore, want models.Deliverable, expected int64) (*models.Deliverable, error) {
	out, err := store.UpdateDeliverable(ctx, &want, expected)
	if err == nil {
		return out, nil
	}
	err = settle(ctx, "deliverable "+want.Id, err, func(ctx context.Context) (bool, error) {
		current, readErr := store.GetDeliverable(ctx, want.Id)
		if readErr != nil {
			return false, readErr
		}
		if !writtenRevision(current.Revision, expected, current.UpdatedAt, want.UpdatedAt) || current.Status != want.Status {
			return false, nil
		}
		out = current
		return true, nil
	})
	return out, err
}

func stagePostingUpdate(plan *commitPlan, store clients.EntityStore, before, after models.Posting, saved *models.Posting) {
	plan.add("posting "+before.Id,
		func(ctx context.Context) error {
			out, err := updatePosting(ctx, store, after, before.Revision)
			if err != nil {
				return err
			}
			*saved = *out
			return nil
		},
		func(ctx context.Context) error {
			_, err := updatePosting(ctx, store, before, saved.Revision)
			return err
		})
}

func stageProposalUpdate(plan *commitPlan, store clients.EntityStore, before, after models.Proposal, saved *models.Proposal) {
	plan.add("proposal "+before.Id,
		func(ctx context.Context) error {
			out, err := updateProposal(ctx, store, after, before.Revision)
			if err != nil {
				return err
			}
			*saved = *out
			return nil
		},
		func(ctx context.Context) error {
			_, err := updateProposal(ctx, store, before, saved.Revision)
			return err
		})
}

// Las altas llevan id generado aquí; si el registro existe tras un error, es el propio.
func stageProposalCreate(plan *commitPlan, store clients.EntityStore, proposal models.Proposal, saved *models.Proposal) {
	plan.add("proposal nueva",
		func(ctx context.Context) error {
			out, err := store.CreateProposal(ctx, &proposal)
			if err != nil {
				return settle(ctx, "proposal "+proposal.Id, err, func(ctx context.Context) (bool, error) {
					current, readErr := store.GetProposal(ctx, proposal.Id)
					if readErr != nil {
						return false, readErr
					}
					*saved = *current
					return true, nil
				})
			}
			*saved = *out
			return nil
		}, nil)
}

func stageDeliverableCreate(plan *commitPlan, store clients.EntityStore, deliverable models.Deliverable, saved *models.Deliverable) {
	plan.add("deliverable v"+fmt.Sprint(deliverable.Version),
		func(ctx context.Context) error {
			out, err := store.CreateDeliverable(ctx, &deliverable)
			if err != nil {
				return settle(ctx, "deliverable "+deliverable.Id, err, func(ctx context.Context) (bool, error) {
					current, readErr := store.GetDeliverable(ctx, deliverable.Id)
					if readErr != nil {
						return false, readErr
					}
					*saved = *current
					return true, nil
				})
			}
			*saved = *out
			return nil
		},
		func(ctx context.Context) error {
			err := store.DeleteDeliverable(ctx, saved.Id, saved.Revision)
			if err == nil || errors.Is(err, clients.ErrNotFound) {
				return nil
			}
			return err
		})
}

func stageDeliverableUpdate(plan *commitPlan, store clients.EntityStore, before, after models.Deliverable, saved *models.Deliverable) {
	plan.add("deliverable "+before.Id,
		func(ctx context.Context) error {
			out, err := updateDeliverable(ctx, store, after, before.Revision)
			if err != nil {
				return err
			}
			*saved = *out
			return nil
		},
		func(ctx context.Context) error {
			_, err := updateDeliverable(ctx, store, before, saved.Revision)
			return err
		})
}
