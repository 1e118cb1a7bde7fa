package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
)

var errConnectTimeout = errors.New("mqtt: timed out waiting for broker")

// RegisterDevice publishes one Home Assistant discovery config per derived
// sensor, retained so the platform re-creates entities after a restart.
// Registration is idempotent per device.
func (s *service) RegisterDevice(device *model.Device) error {
	if _, exists := s.configuredDevices[device.ID]; exists {
		return nil
	}

	for _, sensor := range s.sensors {
		topic := fmt.Sprintf("homeassistant/sensor/%s/%s/config", device.ID, sensor.Slug())
		payload, err := json.Marshal(model.RegisterMessage{
			Tilda:             fmt.Sprintf("homeassistant/sensor/%s/%s", device.ID, sensor.Slug()),
			Name:              sensor.Name,
			ID:                fmt.Sprintf("%s_%s", device.ID, sensor.Slug()),
			StateTopic:        "~/state",
			UnitOfMeasurement: sensor.Unit,
			DeviceClass:       sensor.DeviceClass,
			StateClass:        "measurement",
			EnabledByDefault:  !sensor.Hidden,
			Device: model.RegisterDevice{
				Name:         device.Name,
				Identifiers:  []string{device.ID},
				Model:        device.Model,
				Manufacturer: device.Manufacturer,
			},
		})
		if err != nil {
			return err
		}

		token := s.client.Publish(topic, 1, true, payload)
		if !token.WaitTimeout(connectTimeout) {
			return errConnectTimeout
		}
		if err := token.Error(); err != nil {
			return err
		}
	}

	s.configuredDevices[device.ID] = struct{}{}
	return nil
}

// Write publishes one state message per reading.
func (s *service) Write(ctx context.Context, device *model.Device, readings []model.Reading) error {
	for _, reading := range readings {
		topic := fmt.Sprintf("homeassistant/sensor/%s/%s/state", device.ID, reading.Slug)
		payload, err := json.Marshal(map[string]any{
			"value":               reading.Value,
			"unit_of_measurement": reading.Unit,
		})
		if err != nil {
			return err
		}

		token := s.client.Publish(topic, 0, false, payload)
		if !token.WaitTimeout(10 * time.Second) {
			return errConnectTimeout
		}
		if err := token.Error(); err != nil {
			return err
		}
	}
	return nil
}
