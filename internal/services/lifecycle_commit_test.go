package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udistrital/marketplace_mid/helpers"
	"github.com/udistrital/marketplace_mid/internal/clients"
	"github.com/udistrital/marketplace_mid/models"
)

// faultyStore falla las próximas n actualizaciones de posting con el error configurado.
// Con commitFirst la escritura se aplica antes de reportar el error, como un timeout tardío.
type faultyStore struct {
	*clients.MemoryStore
	mu           sync.Mutex
	failPostings int
	postingErr   error
	commitFirst  bool
	postingCalls int
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: clients.NewMemoryStore()}
}

func (s *faultyStore) failNextPostingUpdates(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPostings = n
	s.postingErr = err
	s.commitFirst = false
	s.postingCalls = 0
}

func (s *faultyStore) commitThenFailNextPostingUpdates(n int, err error) {
	s.failNextPostingUpdates(n, err)
	s.mu.Lock()
	s.commitFirst = true
	s.mu.Unlock()
}

func (s *faultyStore) UpdatePosting(ctx context.Context, p *models.Posting, expectedRevision int64) (*models.Posting, error) {
	s.mu.Lock()
	s.postingCalls++
	if s.failPostings > 0 {
		s.failPostings--
		err, commit := s.postingErr, s.commitFirst
		s.mu.Unlock()
		if commit {
			if _, applyErr := s.MemoryStore.UpdatePosting(ctx, p, expectedRevision); applyErr != nil {
				return nil, applyErr
			}
		}
		return nil, err
	}
	s.mu.Unlock()
	return s.MemoryStore.UpdatePosting(ctx, p, expectedRevision)
}

func TestAcceptRollsBackProposalsWhenPostingWriteFails(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	f := newFixture(t, store)
	posting, pa, pb := f.openPosting(t)
	f.events.reset()

	store.failNextPostingUpdates(1, errors.New("crud no disponible"))
	_, err := f.coord.AcceptProposal(ctx, posting.Id, pa.Id, clientID)
	require.Error(t, err)
	assert.Equal(t, 500, helpers.AsAppError(err, "").Status)

	assert.Equal(t, models.PostingOpen, f.posting(t, posting.Id).Status)
	assert.Equal(t, models.ProposalPending, f.proposal(t, pa.Id).Status)
	assert.Equal(t, models.ProposalPending, f.proposal(t, pb.Id).Status)
	assert.Empty(t, f.events.types())

	// Tras la compensación el estado admite la operación de nuevo.
	_, err = f.coord.AcceptProposal(ctx, posting.Id, pa.Id, clientID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalRejected, f.proposal(t, pb.Id).Status)
}

func TestSubmitRollsBackDeliverableWhenPostingWriteFails(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	f := newFixture(t, store)
	posting, pa, _ := f.inProgress(t)

	store.failNextPostingUpdates(1, errors.New("crud no disponible"))
	_, err := f.coord.SubmitDeliverable(ctx, posting.Id, workerA, "borrador")
	require.Error(t, err)

	deliverables, err := store.ListDeliverables(ctx, posting.Id)
	require.NoError(t, err)
	assert.Empty(t, deliverables)
	assert.Equal(t, models.ProposalInProgress, f.proposal(t, pa.Id).Status)
	stored := f.posting(t, posting.Id)
	assert.Equal(t, models.PostingInProgress, stored.Status)
	assert.Equal(t, 0, stored.LastVersion)

	v1, err := f.coord.SubmitDeliverable(ctx, posting.Id, workerA, "borrador")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)
}

func TestConflictIsRetried(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	f := newFixture(t, store, WithMaxConflictRetries(3))
	posting, pa, pb := f.openPosting(t)

	store.failNextPostingUpdates(2, clients.ErrConflict)
	_, err := f.coord.AcceptProposal(ctx, posting.Id, pa.Id, clientID)
	require.NoError(t, err)
	assert.Equal(t, 3, store.postingCalls)
	assert.Equal(t, models.PostingInProgress, f.posting(t, posting.Id).Status)
	assert.Equal(t, models.ProposalRejected, f.proposal(t, pb.Id).Status)
}

func TestConflictRetriesExhausted(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	f := newFixture(t, store, WithMaxConflictRetries(2))
	posting, pa, pb := f.openPosting(t)

	store.failNextPostingUpdates(100, clients.ErrConflict)
	_, err := f.coord.AcceptProposal(ctx, posting.Id, pa.Id, clientID)
	assertKind(t, err, helpers.KindConflict)
	assert.Equal(t, 3, store.postingCalls)

	store.failNextPostingUpdates(0, nil)
	assert.Equal(t, models.PostingOpen, f.posting(t, posting.Id).Status)
	assert.Equal(t, models.ProposalPending, f.proposal(t, pa.Id).Status)
	assert.Equal(t, models.ProposalPending, f.proposal(t, pb.Id).Status)
}

func TestAcceptSettlesWriteAppliedBeforeConflict(t *testing.T) {
	for name, failure := range map[string]error{
		"412 tardío": clients.ErrConflict,
		"timeout":    errors.New("context deadline exceeded (Client.Timeout exceeded while awaiting headers)"),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newFaultyStore()
			f := newFixture(t, store)
			posting, pa, pb := f.openPosting(t)

			store.commitThenFailNextPostingUpdates(1, failure)
			accepted, err := f.coord.AcceptProposal(ctx, posting.Id, pa.Id, clientID)
			require.NoError(t, err)
			assert.Equal(t, models.ProposalInProgress, accepted.Status)
			assert.Equal(t, 1, store.postingCalls)

			stored := f.posting(t, posting.Id)
			assert.Equal(t, models.PostingInProgress, stored.Status)
			assert.Equal(t, pa.Id, stored.WinningProposalId)
			assert.Equal(t, models.ProposalInProgress, f.proposal(t, pa.Id).Status)
			assert.Equal(t, models.ProposalRejected, f.proposal(t, pb.Id).Status)

			report, err := f.coord.CheckConsistency(ctx, posting.Id, Actor{Id: clientID, Role: RoleClient})
			require.NoError(t, err)
			assert.True(t, report.Consistent, "violaciones: %v", report.Violations)
		})
	}
}

func TestSubmitSettlesWriteAppliedBeforeConflict(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	f := newFixture(t, store)
	posting, pa, _ := f.inProgress(t)

	store.commitThenFailNextPostingUpdates(1, clients.ErrConflict)
	v1, err := f.coord.SubmitDeliverable(ctx, posting.Id, workerA, "borrador")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)

	stored := f.posting(t, posting.Id)
	assert.Equal(t, models.PostingUnderReview, stored.Status)
	assert.Equal(t, 1, stored.LastVersion)
	assert.Equal(t, models.ProposalUnderReview, f.proposal(t, pa.Id).Status)
	deliverables, err := store.ListDeliverables(ctx, posting.Id)
	require.NoError(t, err)
	assert.Len(t, deliverables, 1)
}

func TestUnappliedWriteStillRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	f := newFixture(t, store)
	posting, pa, pb := f.openPosting(t)

	// La relectura no coincide con lo escrito: el conflicto es real y se compensa.
	store.failNextPostingUpdates(1, errors.New("context deadline exceeded"))
	_, err := f.coord.AcceptProposal(ctx, posting.Id, pa.Id, clientID)
	require.Error(t, err)
	assert.Equal(t, models.PostingOpen, f.posting(t, posting.Id).Status)
	assert.Equal(t, models.ProposalPending, f.proposal(t, pa.Id).Status)
	assert.Equal(t, models.ProposalPending, f.proposal(t, pb.Id).Status)
}

func TestCommitPlanRollbackOrderAndFailures(t *testing.T) {
	var trail []string
	plan := &commitPlan{}
	step := func(name string, applyErr, undoErr error) {
		plan.add(name,
			func(context.Context) error { trail = append(trail, "apply "+name); return applyErr },
			func(context.Context) error { trail = append(trail, "undo "+name); return undoErr })
	}
	step("a", nil, nil)
	step("b", nil, errors.New("no se pudo restaurar b"))
	step("c", clients.ErrConflict, nil)

	err := plan.execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"apply a", "apply b", "apply c", "undo b", "undo a"}, trail)

	var ce *commitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "c", ce.step)
	assert.ErrorIs(t, err, clients.ErrConflict)
	assert.Error(t, ce.rollbackErr)
	assert.False(t, ce.retryable(), "una compensación incompleta no se reintenta")
}

func TestCommitPlanRollbackSurvivesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	undone := false
	plan := &commitPlan{}
	plan.add("a", func(context.Context) error { return nil }, func(ctx context.Context) error {
		undone = ctx.Err() == nil
		return nil
	})
	plan.add("b", func(context.Context) error { cancel(); return context.Canceled }, nil)

	err := plan.execute(ctx)
	require.Error(t, err)
	assert.True(t, undone)
}
