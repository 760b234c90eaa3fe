package order_test

import (
	"testing"

	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legalTransitions enumerates the complete transition table.
// Any pair not listed here must be rejected.
var legalTransitions = map[order.State][]order.State{
	order.Created:        {order.AwaitingDriver, order.Cancelled},
	order.AwaitingDriver: {order.Assigned, order.Cancelled, order.Failed},
	order.Assigned:       {order.PickedUp, order.Cancelled, order.Failed},
	order.PickedUp:       {order.InTransit},
	order.InTransit:      {order.Delivered},
	order.Delivered:      {order.Completed},
	order.Completed:      {},
	order.Cancelled:      {},
	order.Failed:         {},
}

func contains(states []order.State, s order.State) bool {
	for _, state := range states {
		if state == s {
			return true
		}
	}
	return false
}

func TestState_CanTransition_Exhaustive(t *testing.T) {
	for _, from := range order.AllStates() {
		for _, to := range order.AllStates() {
			want := contains(legalTransitions[from], to)
			got := from.CanTransition(to)
			assert.Equal(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestState_TerminalStatesAdmitNoTransitions(t *testing.T) {
	for _, terminal := range []order.State{order.Completed, order.Cancelled, order.Failed} {
		assert.True(t, terminal.IsTerminal(), "%s should be terminal", terminal)
		for _, to := range order.AllStates() {
			assert.False(t, terminal.CanTransition(to), "terminal %s must not reach %s", terminal, to)
		}
	}
}

func TestState_Transition(t *testing.T) {
	t.Run("legal transition returns target", func(t *testing.T) {
		next, err := order.Created.Transition(order.AwaitingDriver)

		require.NoError(t, err)
		assert.Equal(t, order.AwaitingDriver, next)
	})

	t.Run("illegal transition returns InvalidTransitionError", func(t *testing.T) {
		_, err := order.Created.Transition(order.Delivered)

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrInvalidTransition)

		var invalid *order.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, order.Created, invalid.From)
		assert.Equal(t, order.Delivered, invalid.To)
	})

	t.Run("unknown state cannot transition anywhere", func(t *testing.T) {
		for _, to := range order.AllStates() {
			assert.False(t, order.Unknown.CanTransition(to))
		}
	})
}

func TestState_Validate(t *testing.T) {
	for _, s := range order.AllStates() {
		require.NoError(t, s.Validate())
	}

	require.Error(t, order.Unknown.Validate())
	require.Error(t, order.State(42).Validate())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "AwaitingDriver", order.AwaitingDriver.String())
	assert.Equal(t, "Cancelled", order.Cancelled.String())
	assert.Equal(t, "Unknown", order.State(42).String())
}

func TestState_ValidateCanHaveAssignment(t *testing.T) {
	t.Run("pre-assignment states must not have one", func(t *testing.T) {
		require.Error(t, order.Created.ValidateCanHaveAssignment(true))
		require.Error(t, order.AwaitingDriver.ValidateCanHaveAssignment(true))
		require.NoError(t, order.Created.ValidateCanHaveAssignment(false))
	})

	t.Run("post-assignment states must have one", func(t *testing.T) {
		for _, s := range []order.State{
			order.Assigned, order.PickedUp, order.InTransit, order.Delivered, order.Completed,
		} {
			require.Error(t, s.ValidateCanHaveAssignment(false), "%s", s)
			require.NoError(t, s.ValidateCanHaveAssignment(true), "%s", s)
		}
	})

	t.Run("cancelled and failed accept either", func(t *testing.T) {
		for _, s := range []order.State{order.Cancelled, order.Failed} {
			require.NoError(t, s.ValidateCanHaveAssignment(true))
			require.NoError(t, s.ValidateCanHaveAssignment(false))
		}
	})
}
