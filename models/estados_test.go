package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusNormalizesLegacyCodes(t *testing.T) {
	cases := map[string]PostingStatus{
		"under-review":  PostingUnderReview,
		"UNDER_REVIEW":  PostingUnderReview,
		" In Progress ": PostingInProgress,
		"open":          PostingOpen,
	}
	for raw, want := range cases {
		got, ok := ParsePostingStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParsePostingStatus("archived")
	assert.False(t, ok)

	p, ok := ParseProposalStatus("changes-requested")
	assert.True(t, ok)
	assert.Equal(t, ProposalChangesRequested, p)

	_, ok = ParseDeliverableStatus("pending")
	assert.False(t, ok)
}

func TestParseReviewDecision(t *testing.T) {
	d, ok := ParseReviewDecision("request-changes")
	assert.True(t, ok)
	assert.Equal(t, DecisionRequestChanges, d)

	_, ok = ParseReviewDecision("maybe")
	assert.False(t, ok)
}

func TestIsWinning(t *testing.T) {
	assert.False(t, ProposalPending.IsWinning())
	assert.False(t, ProposalRejected.IsWinning())
	for _, s := range []ProposalStatus{ProposalAccepted, ProposalInProgress, ProposalUnderReview, ProposalChangesRequested, ProposalCompleted} {
		assert.True(t, s.IsWinning(), s)
	}
}

func TestStatusUnmarshalJSON(t *testing.T) {
	var d Deliverable
	require.NoError(t, json.Unmarshal([]byte(`{"id":"d1","status":"CHANGES-REQUESTED"}`), &d))
	assert.Equal(t, DeliverableChangesRequested, d.Status)

	var p Posting
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","status":null}`), &p))
	assert.Equal(t, PostingStatus(""), p.Status)

	var pr Proposal
	assert.Error(t, json.Unmarshal([]byte(`{"status":"ganadora"}`), &pr))
}
