package testutils

import (
	"context"

	"github.com/papercomputeco/liner/pkg/vector"
)

// MockVectorDriver is a test vector driver that records added documents and
// returns configurable matches.
type MockVectorDriver struct {
	// Documents accumulates everything passed to Add.
	Documents []vector.Document

	// Results is returned by Query, truncated to topK.
	Results []vector.Match

	// FailAdd causes Add to return this error.
	FailAdd error

	// FailQuery causes Query to return this error.
	FailQuery error
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make([]vector.Document, 0),
		Results:   make([]vector.Match, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	if m.FailAdd != nil {
		return m.FailAdd
	}
	m.Documents = append(m.Documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.Match, error) {
	if m.FailQuery != nil {
		return nil, m.FailQuery
	}
	if topK <= 0 || len(m.Results) == 0 {
		return nil, nil
	}
	if len(m.Results) < topK {
		topK = len(m.Results)
	}
	return m.Results[:topK], nil
}

func (m *MockVectorDriver) Get(_ context.Context, _ []string) ([]vector.Document, error) {
	return m.Documents, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, _ []string) error {
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

var _ vector.Driver = (*MockVectorDriver)(nil)
