package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/club-pos/internal/pos/domain"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from    domain.Status
		action  Action
		want    domain.Status
		wantErr bool
	}{
		{domain.StatusPending, KitchenAccept, domain.StatusProcessed, false},
		{domain.StatusProcessed, Close, domain.StatusClosed, false},
		{domain.StatusProcessed, Edit, domain.StatusPending, false},
		{domain.StatusOpen, KitchenAccept, domain.StatusProcessed, false},
		{domain.StatusOpen, Close, domain.StatusClosed, false},
		{domain.StatusOpen, Edit, domain.StatusPending, false},
		{domain.StatusProcessed, KitchenAccept, domain.StatusProcessed, true},
		{domain.StatusPending, Close, domain.StatusPending, true},
		{domain.StatusPending, Edit, domain.StatusPending, true},
		{domain.StatusClosed, KitchenAccept, domain.StatusClosed, true},
		{domain.StatusClosed, Close, domain.StatusClosed, true},
		{domain.StatusClosed, Edit, domain.StatusClosed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := Next(tt.from, tt.action)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNothingLeadsToOpen(t *testing.T) {
	for _, from := range []domain.Status{domain.StatusPending, domain.StatusProcessed, domain.StatusOpen, domain.StatusClosed} {
		for _, a := range []Action{KitchenAccept, Close, Edit} {
			to, err := Next(from, a)
			if err == nil {
				assert.NotEqual(t, domain.StatusOpen, to)
			}
		}
	}
}

func TestClosedIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(domain.StatusClosed))
	assert.False(t, IsTerminal(domain.StatusPending))
	assert.Equal(t, []Action{Close, Edit}, Allowed(domain.StatusProcessed))
	assert.Equal(t, []Action{KitchenAccept, Close, Edit}, Allowed(domain.StatusOpen))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("tick")
	require.NoError(t, err)
	assert.Equal(t, KitchenAccept, a)

	a, err = ParseAction("checkout")
	require.NoError(t, err)
	assert.Equal(t, Close, a)

	_, err = ParseAction("reopen")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
