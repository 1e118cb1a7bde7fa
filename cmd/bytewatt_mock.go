package cmd

import (
	"context"

	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
)

// MockBatteryMonitor is a mock implementation of the BatteryMonitor
// interface for cmd tests.
type MockBatteryMonitor struct {
	AuthenticateFunc   func(ctx context.Context) error
	GetBatteryDataFunc func(ctx context.Context) (model.Snapshot, error)
}

func (m *MockBatteryMonitor) Authenticate(ctx context.Context) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx)
	}
	return nil
}

func (m *MockBatteryMonitor) GetBatteryData(ctx context.Context) (model.Snapshot, error) {
	if m.GetBatteryDataFunc != nil {
		return m.GetBatteryDataFunc(ctx)
	}
	return model.Snapshot{"soc": 50}, nil
}
