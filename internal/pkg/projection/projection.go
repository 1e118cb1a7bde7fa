package projection

import (
	"strings"

	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
	"github.com/gosimple/slug"
	"github.com/samber/lo"
)

// Kind selects how the signed sum over a sensor's fields is folded into
// the published value.
type Kind int

const (
	// Identity publishes the signed sum as-is.
	Identity Kind = iota
	// ClampPositive publishes max(sum, 0): consumption-style readings.
	ClampPositive
	// ClampNegative publishes |min(sum, 0)|: feed-in / charging style
	// readings where the vendor reports the flow as negative.
	ClampNegative
)

// Sensor is one derived reading: a named pure projection over the
// snapshot. Plain data instead of closures so the full table is
// inspectable and each formula is independently testable.
type Sensor struct {
	Name        string
	Unit        string
	DeviceClass string
	Kind        Kind
	Fields      []string
	// Hidden sensors are registered disabled by default, matching the
	// per-string PV readings most installations never look at.
	Hidden bool
}

// Slug is the stable identifier used in topics and metric labels.
func (s Sensor) Slug() string {
	return strings.ReplaceAll(slug.Make(s.Name), "-", "_")
}

// Evaluate computes the sensor's value from a snapshot. Missing fields
// count as zero.
func Evaluate(s Sensor, snapshot model.Snapshot) float64 {
	sum := lo.SumBy(s.Fields, snapshot.Field)
	switch s.Kind {
	case ClampPositive:
		return max(sum, 0)
	case ClampNegative:
		return -min(sum, 0)
	default:
		return sum
	}
}

// Readings evaluates every sensor against the snapshot.
func Readings(sensors []Sensor, snapshot model.Snapshot) []model.Reading {
	return lo.Map(sensors, func(s Sensor, _ int) model.Reading {
		return model.Reading{
			Name:  s.Name,
			Slug:  s.Slug(),
			Unit:  s.Unit,
			Value: Evaluate(s, snapshot),
		}
	})
}

const (
	unitPercent = "%"
	unitWatt    = "W"

	classBattery = "battery"
	classPower   = "power"
)

// DefaultSensors is the derived-reading table for a byte-watt battery
// system. Grid meter and battery power are negative when exporting /
// charging, hence the clamp pairs.
func DefaultSensors() []Sensor {
	return []Sensor{
		{Name: "State of Charge", Unit: unitPercent, DeviceClass: classBattery, Kind: Identity, Fields: []string{"soc"}},
		{Name: "Grid Phase 1 Feed-In", Unit: unitWatt, DeviceClass: classPower, Kind: ClampNegative, Fields: []string{"pmeter_l1"}},
		{Name: "Grid Phase 1 Consumption", Unit: unitWatt, DeviceClass: classPower, Kind: ClampPositive, Fields: []string{"pmeter_l1"}},
		{Name: "Grid Phase 2 Feed-In", Unit: unitWatt, DeviceClass: classPower, Kind: ClampNegative, Fields: []string{"pmeter_l2"}},
		{Name: "Grid Phase 2 Consumption", Unit: unitWatt, DeviceClass: classPower, Kind: ClampPositive, Fields: []string{"pmeter_l2"}},
		{Name: "Grid Phase 3 Feed-In", Unit: unitWatt, DeviceClass: classPower, Kind: ClampNegative, Fields: []string{"pmeter_l3"}},
		{Name: "Grid Phase 3 Consumption", Unit: unitWatt, DeviceClass: classPower, Kind: ClampPositive, Fields: []string{"pmeter_l3"}},
		{Name: "Battery Charging", Unit: unitWatt, DeviceClass: classPower, Kind: ClampNegative, Fields: []string{"pbat"}},
		{Name: "MPPT Tracker String 1", Unit: unitWatt, DeviceClass: classPower, Kind: Identity, Fields: []string{"ppv1"}, Hidden: true},
		{Name: "MPPT Tracker String 2", Unit: unitWatt, DeviceClass: classPower, Kind: Identity, Fields: []string{"ppv2"}, Hidden: true},
		{Name: "MPPT Tracker String 3", Unit: unitWatt, DeviceClass: classPower, Kind: Identity, Fields: []string{"ppv3"}, Hidden: true},
		{Name: "MPPT Tracker String 4", Unit: unitWatt, DeviceClass: classPower, Kind: Identity, Fields: []string{"ppv4"}, Hidden: true},
		{Name: "Battery Phase 1 Discharging", Unit: unitWatt, DeviceClass: classPower, Kind: Identity, Fields: []string{"preal_l1"}},
		{Name: "Battery Phase 2 Discharging", Unit: unitWatt, DeviceClass: classPower, Kind: Identity, Fields: []string{"preal_l2"}},
		{Name: "Battery Phase 3 Discharging", Unit: unitWatt, DeviceClass: classPower, Kind: Identity, Fields: []string{"preal_l3"}},
		{Name: "Battery Discharging", Unit: unitWatt, DeviceClass: classPower, Kind: ClampPositive, Fields: []string{"preal_l1", "preal_l2", "preal_l3"}},
		{Name: "PV Generation", Unit: unitWatt, DeviceClass: classPower, Kind: Identity, Fields: []string{"ppv1", "ppv2", "ppv3", "ppv4"}},
		{Name: "Grid Feed-In", Unit: unitWatt, DeviceClass: classPower, Kind: ClampNegative, Fields: []string{"pmeter_l1", "pmeter_l2", "pmeter_l3"}},
		{Name: "Grid Consumption", Unit: unitWatt, DeviceClass: classPower, Kind: ClampPositive, Fields: []string{"pmeter_l1", "pmeter_l2", "pmeter_l3"}},
	}
}
