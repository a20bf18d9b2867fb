package discovery

import (
	"fmt"
	"strings"
	"time"
)

// Device represents a Lovi device found on the network.
type Device struct {
	// Name is the mDNS instance name, the device's display hostname
	// (e.g., "living-room").
	Name string

	// Hostname is the mDNS hostname (e.g., "living-room.local.")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.1.50")
	IP string

	// Port is the control-plane HTTP port (typically 80)
	Port int

	// MAC is the device MAC address from the mDNS TXT records
	MAC string

	// Model is the hardware model (e.g., "Lovi Presence")
	Model string

	// Firmware is the firmware version string
	Firmware string

	// DeviceType is the device family identifier (e.g., "presence_gen_one")
	DeviceType string

	// Capabilities lists the sensing capabilities the device advertised
	Capabilities []string

	// Metadata holds the raw TXT record key/value pairs
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("Lovi Device %s (%s) at %s:%d", d.Name, d.MAC, d.IP, d.Port)
}

// BaseURL returns the HTTP base URL for the device's control plane
func (d *Device) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", d.IP, d.Port)
}

// CapabilitySummary returns the capabilities as a comma-separated string
func (d *Device) CapabilitySummary() string {
	return strings.Join(d.Capabilities, ",")
}

// GetMetadata retrieves a TXT record value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
