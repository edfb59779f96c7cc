package model_test

import (
	"testing"

	"storehub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionFor_KnownActions(t *testing.T) {
	cases := []struct {
		action     model.OrderAction
		from       string
		submitTo   string
		cancelTo   string
		permission string
	}{
		{model.ActionConfirm, model.OrderStatusPending, model.OrderStatusConfirmed, model.OrderStatusPending, "orders.confirm"},
		{model.ActionExport, model.OrderStatusConfirmed, model.OrderStatusExported, model.OrderStatusConfirmed, "orders.export"},
		{model.ActionDeliver, model.OrderStatusExported, model.OrderStatusDelivered, model.OrderStatusExported, "orders.deliver"},
		{model.ActionComplete, model.OrderStatusDelivered, model.OrderStatusCompleted, model.OrderStatusDelivered, "orders.complete"},
	}

	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			spec, ok := model.TransitionFor(tc.action)

			require.True(t, ok)
			assert.Equal(t, tc.from, spec.From)
			assert.Equal(t, tc.submitTo, spec.SubmitTo)
			assert.Equal(t, tc.cancelTo, spec.CancelTo)
			assert.Equal(t, tc.permission, spec.Permission)
		})
	}
}

func TestTransitionFor_UnknownAction(t *testing.T) {
	_, ok := model.TransitionFor(model.OrderAction("archive"))

	assert.False(t, ok)
}

func TestTransition_ExpectedAndTarget(t *testing.T) {
	spec, ok := model.TransitionFor(model.ActionConfirm)
	require.True(t, ok)

	assert.Equal(t, model.OrderStatusPending, spec.Expected(model.DirectionSubmit))
	assert.Equal(t, model.OrderStatusConfirmed, spec.Target(model.DirectionSubmit))

	// Cancel runs the rollback edge: from the submit target back
	assert.Equal(t, model.OrderStatusConfirmed, spec.Expected(model.DirectionCancel))
	assert.Equal(t, model.OrderStatusPending, spec.Target(model.DirectionCancel))
}

func TestTransition_CancelRestoresSourceStatus(t *testing.T) {
	// Cancelling any action must land back on the status the action
	// started from, never on some third status.
	for _, action := range []model.OrderAction{
		model.ActionConfirm, model.ActionExport, model.ActionDeliver, model.ActionComplete,
	} {
		spec, ok := model.TransitionFor(action)
		require.True(t, ok)
		assert.Equal(t, spec.SubmitTo, spec.Expected(model.DirectionCancel), "action %s", action)
		assert.Equal(t, spec.From, spec.Target(model.DirectionCancel), "action %s", action)
	}
}

func TestValidDirection(t *testing.T) {
	assert.True(t, model.ValidDirection(model.DirectionSubmit))
	assert.True(t, model.ValidDirection(model.DirectionCancel))
	assert.False(t, model.ValidDirection(model.TransitionDirection("rollback")))
	assert.False(t, model.ValidDirection(model.TransitionDirection("")))
}
