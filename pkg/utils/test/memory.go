package testutils

import (
	"context"

	"github.com/papercomputeco/liner/pkg/memory"
	"github.com/papercomputeco/liner/pkg/storage"
	"github.com/papercomputeco/liner/pkg/storage/inmemory"
)

// MockStoreDriver wraps the in-memory store with failure injection.
type MockStoreDriver struct {
	*inmemory.Driver

	// FailWrite causes Write to return this error.
	FailWrite error

	// FailUpdate causes Update to return this error.
	FailUpdate error

	// FailList causes ListAll and ListIDsFor to return this error.
	FailList error
}

// NewMockStoreDriver creates a mock store backed by a fresh in-memory driver.
func NewMockStoreDriver() *MockStoreDriver {
	return &MockStoreDriver{Driver: inmemory.NewDriver()}
}

func (m *MockStoreDriver) Write(ctx context.Context, mem memory.Memory) error {
	if m.FailWrite != nil {
		return m.FailWrite
	}
	return m.Driver.Write(ctx, mem)
}

func (m *MockStoreDriver) Update(ctx context.Context, id string, patch storage.Patch) (memory.Memory, error) {
	if m.FailUpdate != nil {
		return memory.Memory{}, m.FailUpdate
	}
	return m.Driver.Update(ctx, id, patch)
}

func (m *MockStoreDriver) ListAll(ctx context.Context) ([]memory.Memory, error) {
	if m.FailList != nil {
		return nil, m.FailList
	}
	return m.Driver.ListAll(ctx)
}

func (m *MockStoreDriver) ListIDsFor(ctx context.Context, conversationID string) ([]string, error) {
	if m.FailList != nil {
		return nil, m.FailList
	}
	return m.Driver.ListIDsFor(ctx, conversationID)
}

var _ storage.Driver = (*MockStoreDriver)(nil)
