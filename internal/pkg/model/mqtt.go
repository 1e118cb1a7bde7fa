package model

// RegisterDevice is the device block of a Home Assistant MQTT discovery
// config message.
type RegisterDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

// RegisterMessage is a Home Assistant MQTT discovery config payload for a
// single sensor.
type RegisterMessage struct {
	Tilda             string         `json:"~"`
	Name              string         `json:"name"`
	ID                string         `json:"unique_id"`
	StateTopic        string         `json:"state_topic"`
	UnitOfMeasurement string         `json:"unit_of_measurement,omitempty"`
	DeviceClass       string         `json:"device_class,omitempty"`
	StateClass        string         `json:"state_class,omitempty"`
	EnabledByDefault  bool           `json:"enabled_by_default"`
	Device            RegisterDevice `json:"device"`
}
