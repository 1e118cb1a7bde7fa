package mqtt

import (
	"time"

	"github.com/anicoll/bytewatt-integration/internal/pkg/projection"
	"github.com/cenkalti/backoff/v4"
	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

type service struct {
	client  paho_mqtt.Client
	sensors []projection.Sensor
	logger  *zap.Logger

	configuredDevices map[string]struct{}
}

func New(client paho_mqtt.Client, sensors []projection.Sensor) *service {
	return &service{
		client:            client,
		sensors:           sensors,
		logger:            zap.L(),
		configuredDevices: make(map[string]struct{}),
	}
}

// Connect dials the broker, retrying with exponential backoff for up to a
// minute. Brokers on the same host frequently come up after us.
func (s *service) Connect() error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute

	return backoff.RetryNotify(func() error {
		token := s.client.Connect()
		if !token.WaitTimeout(connectTimeout) {
			return errConnectTimeout
		}
		return token.Error()
	}, policy, func(err error, next time.Duration) {
		s.logger.Warn("mqtt connect failed, retrying", zap.Error(err), zap.Duration("next_attempt_in", next))
	})
}
