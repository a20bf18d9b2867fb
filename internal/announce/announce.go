package announce

import (
	"fmt"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/lovihome/lovid/internal/device"
	"github.com/lovihome/lovid/internal/logging"
)

const (
	// ServiceType is the mDNS service type Lovi devices advertise.
	// The Home Assistant integration browses for this type.
	ServiceType = "_lovi._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// Hostname derives the DNS-label-safe hostname from a device display name:
// spaces become hyphens and the result is lower-cased, so "Lovi Presence"
// advertises as "lovi-presence.local".
func Hostname(displayName string) string {
	return strings.ToLower(strings.ReplaceAll(displayName, " ", "-"))
}

// TXTRecords assembles the service metadata advertised alongside the
// service: MAC address, device type, model, firmware version, and the
// capability summary.
func TXTRecords(mac string, identity device.Identity, caps device.Capabilities) []string {
	return []string{
		"mac=" + mac,
		"device_type=" + string(identity.DeviceType),
		"model=" + identity.Model,
		"firmware_version=" + identity.FirmwareVersion,
		"capabilities=" + caps.Summary(),
	}
}

// Announcer advertises the device's control-plane service over mDNS while
// the station link is up.
type Announcer struct {
	mu     sync.Mutex
	server *zeroconf.Server

	instance string
	port     int
	txt      []string
}

// New creates an announcer for the given device. The instance name is the
// derived hostname; port is the control-plane HTTP port.
func New(displayName string, port int, mac string, identity device.Identity, caps device.Capabilities) *Announcer {
	return &Announcer{
		instance: Hostname(displayName),
		port:     port,
		txt:      TXTRecords(mac, identity, caps),
	}
}

// Start registers the service. Starting a running announcer is a no-op.
func (a *Announcer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return nil
	}

	server, err := zeroconf.Register(a.instance, ServiceType, ServiceDomain, a.port, a.txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	a.server = server

	logging.Info("mDNS service advertised",
		zap.String("instance", a.instance),
		zap.String("service", ServiceType),
		zap.Int("port", a.port),
	)
	return nil
}

// Stop withdraws the advertisement. Stopping a stopped announcer is a
// no-op.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	logging.Info("mDNS service withdrawn", zap.String("instance", a.instance))
}

// Running reports whether the service is currently advertised.
func (a *Announcer) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}
