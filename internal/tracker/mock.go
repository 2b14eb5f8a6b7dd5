package tracker

import (
	"context"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of TrackerClient for testing.
type MockClient struct {
	mock.Mock
}

var _ contract.TrackerClient = &MockClient{} // Compile-time check

// Search implements the TrackerClient interface.
func (m *MockClient) Search(ctx context.Context, expr string) ([]schema.Ticket, error) {
	args := m.Called(ctx, expr)
	tickets, _ := args.Get(0).([]schema.Ticket)
	return tickets, args.Error(1)
}
