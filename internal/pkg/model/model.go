package model

// Snapshot is one fetched set of telemetry readings, keyed by the vendor's
// field names (soc, pmeter_l1, ppv1, ...). It is replaced wholesale on every
// successful fetch and never mutated after being stored.
type Snapshot map[string]float64

// Field returns the named value, or 0 when the field is absent. The vendor
// omits fields for hardware that is not installed (e.g. ppv3 on a two-string
// system); downstream formulas treat those as zero.
func (s Snapshot) Field(name string) float64 {
	return s[name]
}

func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Device identifies the battery system to downstream publishers. ID is the
// account username, the only stable identifier the cloud API exposes.
type Device struct {
	ID           string
	Name         string
	Model        string
	Manufacturer string
}

// Reading is one derived value projected from a Snapshot.
type Reading struct {
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}
