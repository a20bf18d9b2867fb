package radio

import (
	"context"
	"fmt"
	"net/netip"
)

// Mode is the radio's operating mode. StationAP keeps an in-flight or
// established station link alive while the configuration access point is
// up, so entering config mode never tears down a useful uplink.
type Mode int

const (
	ModeOff Mode = iota
	ModeStation
	ModeAccessPoint
	ModeStationAP
)

// String returns the mode name used in logs and the /network payload.
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "OFF"
	case ModeStation:
		return "STA"
	case ModeAccessPoint:
		return "AP"
	case ModeStationAP:
		return "AP_STA"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ScanResult is one network found by a scan.
type ScanResult struct {
	SSID     string `json:"ssid"`
	RSSI     int    `json:"rssi"`
	Security string `json:"encryption"`
}

// APConfig configures the provisioning access point. It is constant for
// the process lifetime once config mode has been entered.
type APConfig struct {
	SSID       string
	Passphrase string
	Channel    int
	Addr       netip.Addr
}

// DefaultAPAddr is the fixed gateway address of the provisioning access
// point.
var DefaultAPAddr = netip.AddrFrom4([4]byte{192, 168, 4, 1})

// Radio abstracts the WiFi hardware. All methods are non-blocking except
// Scan, which honors its context. StartStation only initiates a join; the
// caller polls StationUp to observe the outcome.
type Radio interface {
	Mode() Mode
	SetMode(Mode) error

	// StartStation initiates an asynchronous join to the given network.
	StartStation(ssid, passphrase string) error

	// StationUp reports whether the station link is established with an
	// address assigned.
	StationUp() (bool, error)

	// Disconnect drops the station link.
	Disconnect() error

	StartAccessPoint(APConfig) error
	StopAccessPoint() error

	Scan(ctx context.Context) ([]ScanResult, error)

	// Pure queries. Zero values are returned when not applicable.
	MAC() string
	LocalAddr() netip.Addr
	SSID() string
	RSSI() int
	Channel() int
}
