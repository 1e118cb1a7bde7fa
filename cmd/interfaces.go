package cmd

import (
	"context"

	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
)

// BatteryMonitor defines the interface cmd.run expects from the bytewatt
// client.
type BatteryMonitor interface {
	Authenticate(ctx context.Context) error
	GetBatteryData(ctx context.Context) (model.Snapshot, error)
}
