package clients

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udistrital/marketplace_mid/models"
)

func TestMemoryStoreConditionalUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.CreatePosting(ctx, &models.Posting{Id: "p1", Status: models.PostingOpen})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Revision)

	created.Status = models.PostingInProgress
	updated, err := store.UpdatePosting(ctx, created, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Revision)

	_, err = store.UpdatePosting(ctx, created, 1)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = store.UpdatePosting(ctx, &models.Posting{Id: "nope"}, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetPosting(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.CreateProposal(ctx, &models.Proposal{Id: "a", PostingId: "p1", WorkerId: "w1"})
	require.NoError(t, err)
	_, err = store.CreateProposal(ctx, &models.Proposal{Id: "b", PostingId: "p1", WorkerId: "w1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = store.CreateProposal(ctx, &models.Proposal{Id: "c", PostingId: "p2", WorkerId: "w1"})
	assert.NoError(t, err)

	_, err = store.CreateDeliverable(ctx, &models.Deliverable{Id: "d1", PostingId: "p1", Version: 1})
	require.NoError(t, err)
	_, err = store.CreateDeliverable(ctx, &models.Deliverable{Id: "d2", PostingId: "p1", Version: 1})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryStoreListsAndMaxVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"b", "a", "c"} {
		status := models.ProposalPending
		if id == "c" {
			status = models.ProposalRejected
		}
		_, err := store.CreateProposal(ctx, &models.Proposal{Id: id, PostingId: "p1", WorkerId: "w" + id, Status: status, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	all, err := store.ListProposals(ctx, ProposalFilter{PostingId: "p1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{all[0].Id, all[1].Id, all[2].Id})

	pending, err := store.ListProposals(ctx, ProposalFilter{PostingId: "p1", Status: models.ProposalPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, found, err := store.MaxDeliverableVersion(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, found)

	for _, v := range []int{3, 1, 2} {
		_, err := store.CreateDeliverable(ctx, &models.Deliverable{Id: fmt.Sprintf("d%d", v), PostingId: "p1", Version: v})
		require.NoError(t, err)
	}
	max, found, err := store.MaxDeliverableVersion(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, max)

	list, err := store.ListDeliverables(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{list[0].Version, list[1].Version, list[2].Version})

	assert.ErrorIs(t, store.DeleteDeliverable(ctx, "d3", 7), ErrConflict)
	require.NoError(t, store.DeleteDeliverable(ctx, "d3", 1))
	max, _, err = store.MaxDeliverableVersion(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, max)
}

func TestMemoryStoreHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().GetPosting(ctx, "p1")
	assert.ErrorIs(t, err, context.Canceled)
}
