// Package testutil provides common test utilities for the pharmacy platform backend.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pharmaops/backend/internal/domain/shared"
)

// MockEventHandler records every event it receives and can be primed to
// fail, for exercising bus error paths. Safe for concurrent use.
type MockEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewMockEventHandler creates a handler subscribed to the given event types,
// or to everything when none are given.
func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{eventTypes: eventTypes}
}

// EventTypes returns the event types this handler subscribes to.
func (h *MockEventHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event and returns the primed error, if any.
func (h *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of every event received so far.
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// HandledCount returns the number of handled events.
func (h *MockEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError primes Handle to return err.
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Reset clears the recorded events and the primed error.
func (h *MockEventHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = nil
	h.err = nil
}

// TestEvent is a minimal domain event for exercising bus plumbing.
type TestEvent struct {
	shared.BaseDomainEvent
	Payload string
}

// NewTestEvent creates a test event with a fresh event ID.
func NewTestEvent(eventType string, pharmacyID uuid.UUID) *TestEvent {
	return NewTestEventWithID(uuid.New(), eventType, pharmacyID)
}

// NewTestEventWithID creates a test event with a caller-chosen event ID,
// for deduplication scenarios.
func NewTestEventWithID(eventID uuid.UUID, eventType string, pharmacyID uuid.UUID) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:              eventID,
			Type:            eventType,
			Timestamp:       time.Now(),
			AggID:           uuid.New(),
			AggType:         "PendingTransaction",
			PharmacyIDValue: pharmacyID,
		},
		Payload: "hold-payload",
	}
}
