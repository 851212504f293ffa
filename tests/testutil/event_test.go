package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventHandler_RecordsEvents(t *testing.T) {
	handler := NewMockEventHandler("hold.created", "hold.reclaimed")
	assert.Equal(t, []string{"hold.created", "hold.reclaimed"}, handler.EventTypes())
	assert.Equal(t, 0, handler.HandledCount())

	pharmacyID := uuid.New()
	event := NewTestEvent("hold.created", pharmacyID)
	require.NoError(t, handler.Handle(context.Background(), event))

	require.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, event, handler.Handled()[0])
	assert.Equal(t, pharmacyID, handler.Handled()[0].PharmacyID())
}

func TestMockEventHandler_HandledReturnsCopy(t *testing.T) {
	handler := NewMockEventHandler()
	require.NoError(t, handler.Handle(context.Background(), NewTestEvent("hold.created", uuid.New())))

	snapshot := handler.Handled()
	snapshot[0] = nil

	require.NotNil(t, handler.Handled()[0], "mutating the snapshot must not touch the record")
}

func TestMockEventHandler_SetError(t *testing.T) {
	handler := NewMockEventHandler("hold.created")
	handler.SetError(assert.AnError)

	err := handler.Handle(context.Background(), NewTestEvent("hold.created", uuid.New()))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, handler.HandledCount(), "failing handlers still record the delivery")
}

func TestMockEventHandler_Reset(t *testing.T) {
	handler := NewMockEventHandler("hold.created")
	handler.SetError(assert.AnError)
	_ = handler.Handle(context.Background(), NewTestEvent("hold.created", uuid.New()))

	handler.Reset()

	assert.Equal(t, 0, handler.HandledCount())
	assert.NoError(t, handler.Handle(context.Background(), NewTestEvent("hold.created", uuid.New())))
}

func TestNewTestEvent(t *testing.T) {
	pharmacyID := uuid.New()
	event := NewTestEvent("hold.expired", pharmacyID)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "hold.expired", event.EventType())
	assert.Equal(t, "PendingTransaction", event.AggregateType())
	assert.Equal(t, pharmacyID, event.PharmacyID())
	assert.False(t, event.OccurredAt().IsZero())
}

func TestNewTestEventWithID(t *testing.T) {
	eventID := uuid.New()
	event := NewTestEventWithID(eventID, "hold.reclaimed", uuid.New())
	assert.Equal(t, eventID, event.EventID())
}
