package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ByteWattCfg *ByteWattConfig
	MqttCfg     *MqttConfig
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:"0.0.0.0:8000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`
}

type ByteWattConfig struct {
	Username     string        `env:"BYTEWATT_USERNAME"`
	Password     string        `env:"BYTEWATT_PASSWORD"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5m"`
}

// MqttConfig is optional; an empty Host disables the MQTT publisher.
type MqttConfig struct {
	Host     string `env:"MQTT_HOST"`
	Username string `env:"MQTT_USER"`
	Password string `env:"MQTT_PASS"`
}

var ErrMissingCredentials = errors.New("bytewatt username and password are required")

// FromEnv builds a Config from the environment. CLI flags layered on top by
// cmd override whatever is set here.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ByteWattCfg: &ByteWattConfig{},
		MqttCfg:     &MqttConfig{},
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ByteWattCfg == nil || c.ByteWattCfg.Username == "" || c.ByteWattCfg.Password == "" {
		return ErrMissingCredentials
	}
	if c.ByteWattCfg.PollInterval <= 0 {
		c.ByteWattCfg.PollInterval = 5 * time.Minute
	}
	return nil
}
