package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udistrital/marketplace_mid/helpers"
	"github.com/udistrital/marketplace_mid/models"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name  string
		kind  models.EntityKind
		from  string
		event lifecycleEvent
		want  string
	}{
		{"posting adjudicado", models.KindPosting, "open", eventAccept, "in_progress"},
		{"posting en revisión", models.KindPosting, "in_progress", eventSubmit, "under_review"},
		{"posting completado", models.KindPosting, "under_review", eventApprove, "completed"},
		{"posting con cambios", models.KindPosting, "under_review", eventRequestChanges, "in_progress"},
		{"posting rechazado", models.KindPosting, "under_review", eventReject, "in_progress"},
		{"propuesta aceptada arranca", models.KindProposal, "pending", eventAccept, "in_progress"},
		{"propuesta descartada", models.KindProposal, "pending", eventSupersede, "rejected"},
		{"reenvío tras cambios", models.KindProposal, "changes_requested", eventSubmit, "under_review"},
		{"reenvío tras rechazo", models.KindProposal, "rejected", eventSubmit, "under_review"},
		{"entrega nueva", models.KindDeliverable, "", eventSubmit, "under_review"},
		{"reemplazo de entrega eliminada", models.KindProposal, "under_review", eventResubmit, "under_review"},
		{"posting sigue en revisión", models.KindPosting, "under_review", eventResubmit, "under_review"},
		{"entrega aprobada", models.KindDeliverable, "under_review", eventApprove, "approved"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := transition(tc.kind, tc.from, tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTransitionRejectsUnknownPairs(t *testing.T) {
	cases := []struct {
		kind  models.EntityKind
		from  string
		event lifecycleEvent
	}{
		{models.KindPosting, "in_progress", eventAccept},
		{models.KindPosting, "completed", eventSubmit},
		{models.KindProposal, "pending", eventSubmit},
		{models.KindProposal, "under_review", eventSubmit},
		{models.KindPosting, "under_review", eventSubmit},
		{models.KindProposal, "changes_requested", eventResubmit},
		{models.KindPosting, "in_progress", eventResubmit},
		{models.KindProposal, "completed", eventSubmit},
		{models.KindDeliverable, "approved", eventReject},
		{models.KindDeliverable, "changes_requested", eventApprove},
	}
	for _, tc := range cases {
		_, err := transition(tc.kind, tc.from, tc.event)
		assert.True(t, helpers.IsKind(err, helpers.KindInvalidState), "%s %s %s", tc.kind, tc.from, tc.event)
	}
}

func TestDecisionEvent(t *testing.T) {
	ev, err := decisionEvent(models.DecisionRequestChanges)
	require.NoError(t, err)
	assert.Equal(t, eventRequestChanges, ev)

	_, err = decisionEvent("postpone")
	assert.True(t, helpers.IsKind(err, helpers.KindInvalidArgument))
}
