package publisher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
	"go.uber.org/zap"
)

var errAlreadyRegistered = errors.New("publisher already registered")

var (
	mu                  sync.Mutex
	registerdPublishers = make(map[string]publisher)
	sensors             sync.Map
)

type publisher interface {
	// Write publishes the derived readings to the backing adapter.
	Write(ctx context.Context, device *model.Device, readings []model.Reading) error
	RegisterDevice(device *model.Device) error
}

func RegisterPublisher(name string, publisher publisher) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registerdPublishers[name]; ok {
		return errAlreadyRegistered
	}
	registerdPublishers[name] = publisher
	return nil
}

// PublishReadings fans the readings out to every registered publisher.
// Readings whose formatted value has not changed since the last publish are
// skipped. Individual publisher failures are logged, not propagated: one
// broken adapter must not starve the others.
func PublishReadings(ctx context.Context, device *model.Device, readings []model.Reading) error {
	changed := make([]model.Reading, 0, len(readings))
	for _, reading := range readings {
		if !shouldUpdate(device.ID, reading.Slug, formatValue(reading.Value)) {
			continue
		}
		changed = append(changed, reading)
	}
	if len(changed) == 0 {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()
	for name, publisher := range registerdPublishers {
		if err := publisher.Write(ctx, device, changed); err != nil {
			zap.L().Error("failed to publish readings", zap.Error(err), zap.String("publisher", name))
			continue
		}
		zap.L().Debug("updated sensors", zap.Int("count", len(changed)), zap.String("publisher", name))
	}
	return nil
}

func RegisterDevice(device *model.Device) error {
	mu.Lock()
	defer mu.Unlock()
	for name, publisher := range registerdPublishers {
		if err := publisher.RegisterDevice(device); err != nil {
			zap.L().Error("failed to register device", zap.Error(err), zap.String("publisher", name))
			continue
		}
		zap.L().Debug("registered device", zap.String("device", device.ID), zap.String("publisher", name))
	}
	return nil
}

// formatValue renders a reading the way every adapter publishes it, which
// is also the granularity of the change dedup.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func shouldUpdate(identifier, slug, newValue string) bool {
	key := fmt.Sprintf("%s_%s", identifier, slug)
	oldValue, exists := sensors.Load(key)
	if exists && newValue == oldValue.(string) {
		return false
	}
	if !exists {
		zap.L().Info("configured sensor", zap.String("device", identifier), zap.String("sensor", slug), zap.String("value", newValue))
	}
	sensors.Store(key, newValue)
	return true
}

// reset clears registry state between tests.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	registerdPublishers = make(map[string]publisher)
	sensors = sync.Map{}
}
