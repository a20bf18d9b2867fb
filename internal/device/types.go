package device

import "strings"

// Type identifies the hardware variant a daemon build is driving.
type Type string

const (
	TypePresenceGenOne Type = "presence_gen_one"
	TypeTest           Type = "test_device"
	TypeUnknown        Type = "unknown"
)

// Capabilities describes what a device variant can measure. The provisioner
// and the control plane depend only on this summary, never on a concrete
// adapter type.
type Capabilities struct {
	Presence    bool    `json:"presence"`
	Motion      bool    `json:"motion"`
	Temperature bool    `json:"temperature"`
	Humidity    bool    `json:"humidity"`
	Sensitivity bool    `json:"sensitivity"`
	MaxDistance float64 `json:"max_distance"`
}

// Summary returns the comma-separated capability list advertised in the
// mDNS TXT record, e.g. "presence,motion,temperature".
func (c Capabilities) Summary() string {
	var caps []string
	if c.Presence {
		caps = append(caps, "presence")
	}
	if c.Motion {
		caps = append(caps, "motion")
	}
	if c.Temperature {
		caps = append(caps, "temperature")
	}
	if c.Humidity {
		caps = append(caps, "humidity")
	}
	if c.Sensitivity {
		caps = append(caps, "sensitivity")
	}
	return strings.Join(caps, ",")
}

// Identity is the device's self-description exposed on /device and in
// service announcements.
type Identity struct {
	Name            string `json:"name"`
	ID              string `json:"id"`
	Model           string `json:"model"`
	DeviceType      Type   `json:"device_type"`
	FirmwareVersion string `json:"version"`
	Manufacturer    string `json:"manufacturer"`
}

// Snapshot is one reading of the device's sensors, exposed verbatim through
// the API. Uptime is seconds since daemon start.
type Snapshot struct {
	Presence    bool    `json:"presence"`
	Motion      bool    `json:"motion"`
	Distance    float64 `json:"distance"`
	Sensitivity int     `json:"sensitivity"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Uptime      int64   `json:"uptime"`
}
