package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pharmaops/backend/internal/domain/identity"
	"github.com/pharmaops/backend/internal/domain/inventory"
	"github.com/pharmaops/backend/internal/domain/reconciliation"
	"github.com/pharmaops/backend/internal/domain/sales"
	"github.com/pharmaops/backend/internal/domain/settings"
	"github.com/pharmaops/backend/internal/domain/shared"
)

// MockPendingTransactionRepository is a mock implementation of PendingTransactionRepository
type MockPendingTransactionRepository struct {
	mock.Mock
}

func (m *MockPendingTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.PendingTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.PendingTransaction), args.Error(1)
}

func (m *MockPendingTransactionRepository) FindReclaimCandidates(ctx context.Context, scope identity.ScopeFilter) ([]sales.PendingTransaction, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.PendingTransaction), args.Error(1)
}

func (m *MockPendingTransactionRepository) Save(ctx context.Context, tx *sales.PendingTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockPendingTransactionRepository) Retire(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockInventoryItemRepository is a mock implementation of InventoryItemRepository
type MockInventoryItemRepository struct {
	mock.Mock
}

func (m *MockInventoryItemRepository) FindByResource(ctx context.Context, pharmacyID, branchID, resourceID uuid.UUID) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, pharmacyID, branchID, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) IncrementQuantity(ctx context.Context, pharmacyID, branchID, resourceID uuid.UUID, qty int64) error {
	args := m.Called(ctx, pharmacyID, branchID, resourceID, qty)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// MockRunRecordRepository is a mock implementation of RunRecordRepository
type MockRunRecordRepository struct {
	mock.Mock
}

func (m *MockRunRecordRepository) Append(ctx context.Context, record *reconciliation.CleanupRunRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRunRecordRepository) AggregateTotals(ctx context.Context, scope identity.ScopeFilter) (*reconciliation.HistoryTotals, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.HistoryTotals), args.Error(1)
}

// MockSettingsProvider is a mock implementation of settings.Provider
type MockSettingsProvider struct {
	mock.Mock
}

func (m *MockSettingsProvider) ForPharmacy(ctx context.Context, pharmacyID uuid.UUID) (*settings.PharmacySettings, error) {
	args := m.Called(ctx, pharmacyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.PharmacySettings), args.Error(1)
}

// MockEventBus is a mock implementation of EventBus for testing
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	m.Called(handler, eventTypes)
}

func (m *MockEventBus) Unsubscribe(handler shared.EventHandler) {
	m.Called(handler)
}

func (m *MockEventBus) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventBus) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
