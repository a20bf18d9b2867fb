package radio

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/lovihome/lovid/internal/logging"
)

const (
	iwdService        = "net.connman.iwd"
	deviceIface       = "net.connman.iwd.Device"
	stationIface      = "net.connman.iwd.Station"
	networkIface      = "net.connman.iwd.Network"
	accessPointIface  = "net.connman.iwd.AccessPoint"
	dbusPropsIface    = "org.freedesktop.DBus.Properties"
	objectManagerCall = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

// IWD drives a WiFi interface through iwd's D-Bus API. Station joins go
// through the Network.Connect call with a registered credential agent; the
// provisioning access point uses the AccessPoint interface with the fixed
// portal address assigned over netlink.
type IWD struct {
	conn   *dbus.Conn
	agent  *agent
	ifname string
	index  uint32
	mac    string

	devicePath  dbus.ObjectPath
	stationPath dbus.ObjectPath

	mu       sync.Mutex
	mode     Mode
	target   string // SSID of the in-flight or established join
	apActive bool
	apConfig APConfig
}

// NewIWD creates a radio bound to the named WiFi interface. It fails when
// the system bus, the interface, or iwd's device object is unavailable.
func NewIWD(ifname string) (*IWD, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	index, mac, err := linkInfo(ifname)
	if err != nil {
		return nil, err
	}

	r := &IWD{
		conn:   conn,
		ifname: ifname,
		index:  index,
		mac:    mac,
		mode:   ModeStation,
	}

	if err := r.findDevice(); err != nil {
		return nil, err
	}

	r.agent = newAgent(conn)
	if err := r.agent.register(); err != nil {
		logging.Warn("failed to register iwd agent, PSK joins may fail",
			zap.Error(err))
	}

	return r, nil
}

// findDevice locates the iwd Device object for our interface. The Station
// object shares the device path.
func (r *IWD) findDevice() error {
	obj := r.conn.Object(iwdService, "/")

	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := obj.Call(objectManagerCall, 0).Store(&managed); err != nil {
		return fmt.Errorf("failed to enumerate iwd objects: %w", err)
	}

	for path, ifaces := range managed {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		if name, ok := props["Name"]; ok && name.Value() == r.ifname {
			r.devicePath = path
			r.stationPath = path
			return nil
		}
	}
	return fmt.Errorf("iwd device for interface %q not found", r.ifname)
}

func (r *IWD) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetMode records the requested mode. The actual device mode follows from
// the StartStation/StartAccessPoint calls; iwd only exposes one phy role
// at a time, so StationAP keeps the station role and relies on the AP
// being started on demand.
func (r *IWD) SetMode(m Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = m
	return nil
}

// StartStation initiates an asynchronous join. The connect call itself
// runs on a goroutine because iwd blocks Network.Connect until the join
// settles; the caller observes progress through StationUp.
func (r *IWD) StartStation(ssid, passphrase string) error {
	if ssid == "" {
		return fmt.Errorf("empty SSID")
	}

	networkPath, err := r.findNetwork(ssid)
	if err != nil {
		// Not scanned yet. Kick a scan so a later attempt can find it.
		r.requestScan()
		return fmt.Errorf("network %q not visible: %w", ssid, err)
	}

	if passphrase != "" {
		r.agent.stage(networkPath, passphrase)
	}

	r.mu.Lock()
	r.target = ssid
	r.mu.Unlock()

	go func() {
		obj := r.conn.Object(iwdService, networkPath)
		if err := obj.Call(networkIface+".Connect", 0).Err; err != nil {
			logging.Warn("iwd Network.Connect failed",
				zap.String("ssid", ssid), zap.Error(err))
			r.agent.clear(networkPath)
		}
	}()
	return nil
}

// findNetwork resolves the ordered-network object path for an SSID.
func (r *IWD) findNetwork(ssid string) (dbus.ObjectPath, error) {
	obj := r.conn.Object(iwdService, r.stationPath)

	var ordered []struct {
		Path dbus.ObjectPath
		RSSI int16
	}
	if err := obj.Call(stationIface+".GetOrderedNetworks", 0).Store(&ordered); err != nil {
		return "", fmt.Errorf("failed to list networks: %w", err)
	}

	for _, entry := range ordered {
		netObj := r.conn.Object(iwdService, entry.Path)
		name, err := netObj.GetProperty(networkIface + ".Name")
		if err != nil {
			continue
		}
		if s, ok := name.Value().(string); ok && s == ssid {
			return entry.Path, nil
		}
	}
	return "", fmt.Errorf("not in scan results")
}

func (r *IWD) requestScan() {
	obj := r.conn.Object(iwdService, r.stationPath)
	// Scan errors (already in progress) are harmless here
	_ = obj.Call(stationIface+".Scan", 0).Err
}

// StationUp reports link-up: iwd says connected and an IPv4 address is
// assigned.
func (r *IWD) StationUp() (bool, error) {
	obj := r.conn.Object(iwdService, r.stationPath)
	state, err := obj.GetProperty(stationIface + ".State")
	if err != nil {
		return false, fmt.Errorf("failed to read station state: %w", err)
	}
	if s, ok := state.Value().(string); !ok || s != "connected" {
		return false, nil
	}

	addr, err := linkAddr(r.index)
	if err != nil {
		return false, err
	}
	return addr.IsValid(), nil
}

func (r *IWD) Disconnect() error {
	r.mu.Lock()
	r.target = ""
	r.mu.Unlock()

	obj := r.conn.Object(iwdService, r.stationPath)
	return obj.Call(stationIface+".Disconnect", 0).Err
}

// StartAccessPoint switches the device into AP mode and brings up the
// provisioning network. Channel selection is left to iwd.
func (r *IWD) StartAccessPoint(cfg APConfig) error {
	r.mu.Lock()
	if r.apActive {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	dev := r.conn.Object(iwdService, r.devicePath)
	if err := dev.Call(dbusPropsIface+".Set", 0,
		deviceIface, "Mode", dbus.MakeVariant("ap")).Err; err != nil {
		return fmt.Errorf("failed to switch device to AP mode: %w", err)
	}

	// iwd takes a moment to expose the AccessPoint interface
	var startErr error
	for attempt := 0; attempt < 5; attempt++ {
		ap := r.conn.Object(iwdService, r.devicePath)
		startErr = ap.Call(accessPointIface+".Start", 0, cfg.SSID, cfg.Passphrase).Err
		if startErr == nil {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	if startErr != nil {
		return fmt.Errorf("failed to start access point: %w", startErr)
	}

	if err := assignAddr(r.index, cfg.Addr, 24); err != nil {
		return fmt.Errorf("failed to assign AP address: %w", err)
	}

	r.mu.Lock()
	r.apActive = true
	r.apConfig = cfg
	r.mu.Unlock()
	return nil
}

// StopAccessPoint tears the AP down and returns the device to station
// mode. Stopping an inactive AP is a no-op.
func (r *IWD) StopAccessPoint() error {
	r.mu.Lock()
	if !r.apActive {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	ap := r.conn.Object(iwdService, r.devicePath)
	if err := ap.Call(accessPointIface+".Stop", 0).Err; err != nil {
		return fmt.Errorf("failed to stop access point: %w", err)
	}

	dev := r.conn.Object(iwdService, r.devicePath)
	if err := dev.Call(dbusPropsIface+".Set", 0,
		deviceIface, "Mode", dbus.MakeVariant("station")).Err; err != nil {
		return fmt.Errorf("failed to switch device to station mode: %w", err)
	}

	r.mu.Lock()
	r.apActive = false
	r.mu.Unlock()
	return nil
}

// Scan triggers a station scan and returns the ordered results.
func (r *IWD) Scan(ctx context.Context) ([]ScanResult, error) {
	r.requestScan()

	// Give iwd a moment to populate results, bounded by the context
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	obj := r.conn.Object(iwdService, r.stationPath)
	var ordered []struct {
		Path dbus.ObjectPath
		RSSI int16
	}
	if err := obj.Call(stationIface+".GetOrderedNetworks", 0).Store(&ordered); err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}

	results := make([]ScanResult, 0, len(ordered))
	for _, entry := range ordered {
		netObj := r.conn.Object(iwdService, entry.Path)
		name, err := netObj.GetProperty(networkIface + ".Name")
		if err != nil {
			continue
		}
		security := "open"
		if sec, err := netObj.GetProperty(networkIface + ".Type"); err == nil {
			if s, ok := sec.Value().(string); ok {
				security = s
			}
		}
		ssid, _ := name.Value().(string)
		results = append(results, ScanResult{
			SSID: ssid,
			// iwd reports RSSI in centi-dBm
			RSSI:     int(entry.RSSI) / 100,
			Security: security,
		})
	}
	return results, nil
}

func (r *IWD) MAC() string {
	return r.mac
}

func (r *IWD) LocalAddr() netip.Addr {
	addr, err := linkAddr(r.index)
	if err != nil {
		return netip.Addr{}
	}
	return addr
}

func (r *IWD) SSID() string {
	obj := r.conn.Object(iwdService, r.stationPath)
	connected, err := obj.GetProperty(stationIface + ".ConnectedNetwork")
	if err != nil {
		return ""
	}
	path, ok := connected.Value().(dbus.ObjectPath)
	if !ok {
		return ""
	}
	netObj := r.conn.Object(iwdService, path)
	name, err := netObj.GetProperty(networkIface + ".Name")
	if err != nil {
		return ""
	}
	s, _ := name.Value().(string)
	return s
}

func (r *IWD) RSSI() int {
	ssid := r.SSID()
	if ssid == "" {
		return 0
	}

	obj := r.conn.Object(iwdService, r.stationPath)
	var ordered []struct {
		Path dbus.ObjectPath
		RSSI int16
	}
	if err := obj.Call(stationIface+".GetOrderedNetworks", 0).Store(&ordered); err != nil {
		return 0
	}
	for _, entry := range ordered {
		netObj := r.conn.Object(iwdService, entry.Path)
		name, err := netObj.GetProperty(networkIface + ".Name")
		if err != nil {
			continue
		}
		if s, ok := name.Value().(string); ok && s == ssid {
			return int(entry.RSSI) / 100
		}
	}
	return 0
}

// Channel is not exposed by iwd's station API; AP channel comes from the
// active AP config.
func (r *IWD) Channel() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.apActive {
		return r.apConfig.Channel
	}
	return 0
}

// Close unregisters the credential agent.
func (r *IWD) Close() {
	if r.agent != nil {
		_ = r.agent.unregister()
	}
}
