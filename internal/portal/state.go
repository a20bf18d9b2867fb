package portal

import "net/netip"

// Status is the provisioner's published view of provisioning state. The
// provisioner replaces it each tick; handlers only ever read a copy, so
// mode transitions stay single-writer.
type Status struct {
	ConfigMode bool

	Connected bool
	IP        netip.Addr
	SSID      string
	RSSI      int

	APActive bool
	APAddr   netip.Addr
	APSSID   string
	Channel  int

	RadioMode string
	ConnState string
}

// Request is a control-plane action that must run on the provisioner's
// tick, queued by handlers and drained at the top of each tick.
type Request int

const (
	// RequestReconnect asks the provisioner to retry the station join
	// with freshly saved credentials.
	RequestReconnect Request = iota
)
