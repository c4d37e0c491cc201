package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		by   Actor
		ok   bool
	}{
		{"staff starts processing", StatusPending, StatusProcessing, ActorStaff, true},
		{"customer cannot start processing", StatusPending, StatusProcessing, ActorCustomer, false},
		{"customer cancels pending", StatusPending, StatusCancelled, ActorCustomer, true},
		{"staff cancels pending", StatusPending, StatusCancelled, ActorStaff, true},
		{"staff ships", StatusProcessing, StatusShipped, ActorStaff, true},
		{"staff cancels processing", StatusProcessing, StatusCancelled, ActorStaff, true},
		{"customer cannot cancel processing", StatusProcessing, StatusCancelled, ActorCustomer, false},
		{"delivery confirmation", StatusShipped, StatusDelivered, ActorStaff, true},
		{"no cancel after shipping", StatusShipped, StatusCancelled, ActorStaff, false},
		{"no skipping ahead", StatusPending, StatusShipped, ActorStaff, false},
		{"no going backwards", StatusShipped, StatusProcessing, ActorStaff, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to, tc.by))
		})
	}
}

func TestTerminalStatesAreClosed(t *testing.T) {
	all := []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		assert.True(t, terminal.Terminal())
		for _, to := range all {
			for _, by := range []Actor{ActorCustomer, ActorStaff} {
				assert.False(t, CanTransition(terminal, to, by),
					"unexpected edge %s -> %s by %s", terminal, to, by)
			}
		}
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("paid").Valid())
	assert.False(t, Status("").Valid())
}
