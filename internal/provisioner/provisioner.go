package provisioner

import (
	"fmt"
	"net/netip"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lovihome/lovid/internal/announce"
	"github.com/lovihome/lovid/internal/conn"
	"github.com/lovihome/lovid/internal/credentials"
	"github.com/lovihome/lovid/internal/device"
	"github.com/lovihome/lovid/internal/dnsredirect"
	"github.com/lovihome/lovid/internal/indicator"
	"github.com/lovihome/lovid/internal/logging"
	"github.com/lovihome/lovid/internal/portal"
	"github.com/lovihome/lovid/internal/radio"
)

// Mode is the provisioning mode.
type Mode int

const (
	// ModeNormal means the device is operating as a station, connected
	// or trying to connect to the configured network.
	ModeNormal Mode = iota
	// ModeConfig means the captive portal is active: AP up at a fixed
	// address, DNS redirector answering every query with that address.
	ModeConfig
)

func (m Mode) String() string {
	if m == ModeConfig {
		return "CONFIG"
	}
	return "NORMAL"
}

// Config holds the orchestrator's settings.
type Config struct {
	// APSSID is the network name of the provisioning access point.
	APSSID string
	// APPassphrase secures the provisioning AP; empty means open.
	APPassphrase string
	// APChannel is the AP radio channel.
	APChannel int
	// APAddr is the fixed portal address, also the DNS catch-all answer.
	APAddr netip.Addr
	// DNSPort is the redirector's UDP listen port, normally 53.
	DNSPort int
	// PortalPort is the control-plane HTTP port, advertised over mDNS.
	PortalPort int
	// DeviceName is the display name; its lowercased hyphenated form
	// becomes the mDNS hostname.
	DeviceName string

	// TickInterval is the cadence of the orchestrator loop. Zero means
	// one second.
	TickInterval time.Duration
}

// Provisioner drives provisioning. Its tick loop is the sole mutator of
// mode, connection state, and indicator pattern; everything else observes
// through the published Status snapshot or queues requests.
type Provisioner struct {
	cfg      Config
	radio    radio.Radio
	store    credentials.Store
	mgr      *conn.Manager
	adapter  device.Adapter
	ind      indicator.Indicator
	redirect *dnsredirect.Redirector
	ann      *announce.Announcer

	// publish pushes a telemetry frame per tick; nil disables the stream.
	publish func(device.Snapshot)

	// flashDelay is the deliberate stall showing the connected pattern
	// after a successful join. Tests zero it.
	flashDelay time.Duration

	mode     Mode
	notified bool // adapter saw WiFiConnected for the current link

	// pendingConfig holds the reason for a config-mode entry that has
	// not completed yet; the tick loop retries until it does.
	pendingConfig string

	mu     sync.RWMutex
	status portal.Status

	reqs chan portal.Request
	stop chan struct{}
	done chan struct{}
}

// New wires the orchestrator. The adapter may be nil; a null adapter is
// substituted.
func New(cfg Config, rdo radio.Radio, store credentials.Store, adapter device.Adapter, ind indicator.Indicator) *Provisioner {
	if adapter == nil {
		adapter = device.NewNull()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if !cfg.APAddr.IsValid() {
		cfg.APAddr = radio.DefaultAPAddr
	}

	identity := adapter.Identity()
	return &Provisioner{
		cfg:        cfg,
		radio:      rdo,
		store:      store,
		mgr:        conn.NewManager(rdo, store),
		adapter:    adapter,
		ind:        ind,
		redirect:   dnsredirect.New(cfg.APAddr, cfg.DNSPort),
		ann:        announce.New(cfg.DeviceName, cfg.PortalPort, rdo.MAC(), identity, adapter.Capabilities()),
		flashDelay: time.Second,
		reqs:       make(chan portal.Request, 16),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Requests is the channel control-plane handlers queue actions on.
func (p *Provisioner) Requests() chan<- portal.Request {
	return p.reqs
}

// Status returns the snapshot published at the end of the last tick.
func (p *Provisioner) Status() portal.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// SetPublisher registers the per-tick telemetry sink. Must be called
// before Start.
func (p *Provisioner) SetPublisher(fn func(device.Snapshot)) {
	p.publish = fn
}

// Start runs the startup decision and launches the tick loop. With no
// stored SSID the device goes straight to config mode without burning a
// connect timeout; otherwise a join starts and setup continues while it
// is in flight.
func (p *Provisioner) Start() error {
	if err := p.startup(); err != nil {
		return err
	}
	go p.run()
	return nil
}

func (p *Provisioner) startup() error {
	p.ind.SetPattern(indicator.PatternBoot)

	if p.store.Has() {
		p.mgr.Connect()
	} else {
		logging.Info("no stored credentials, starting captive portal")
		p.pendingConfig = "no stored credentials"
		if err := p.enterConfig(p.pendingConfig); err != nil {
			logging.Error("failed to start captive portal, retrying next tick",
				zap.Error(err))
		}
	}
	p.publishStatus()
	return nil
}

// Stop terminates the tick loop and tears down the AP, redirector, and
// announcement.
func (p *Provisioner) Stop() {
	close(p.stop)
	<-p.done

	p.redirect.Stop()
	p.ann.Stop()
	_ = p.radio.StopAccessPoint()
}

func (p *Provisioner) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick advances every subsystem once, in fixed order. All provisioning
// state mutation happens here.
func (p *Provisioner) tick() {
	p.drainRequests()
	p.refreshIndicator()

	switch p.mgr.Tick() {
	case conn.EventConnected:
		p.handleConnected()
	case conn.EventFailed:
		p.pendingConfig = "connect timeout"
	case conn.EventDisconnected:
		p.handleDisconnected()
	}

	// A pending entry stays armed across ticks so a failed portal start
	// (AP or redirector) is retried instead of wedging the device in
	// neither mode.
	if p.pendingConfig != "" && p.mode != ModeConfig && !p.mgr.IsConnected() {
		if err := p.enterConfig(p.pendingConfig); err != nil {
			logging.Error("failed to enter config mode, retrying next tick",
				zap.Error(err))
		}
	}

	if p.mode == ModeNormal && p.mgr.IsConnected() {
		p.adapter.Tick()
		p.startAnnouncer()
	}

	p.publishStatus()
	if p.publish != nil {
		p.publish(p.adapter.Snapshot())
	}
}

// drainRequests applies every queued control-plane action.
func (p *Provisioner) drainRequests() {
	for {
		select {
		case req := <-p.reqs:
			if req == portal.RequestReconnect {
				if !p.mgr.Connect() {
					logging.Info("reconnect request not actionable",
						zap.String("state", p.mgr.State().String()))
				}
			}
		default:
			return
		}
	}
}

func (p *Provisioner) refreshIndicator() {
	// A manual override from the control plane holds until the next
	// mode or link transition resumes automatic patterns.
	if !p.ind.Overridden() {
		var pat indicator.Pattern
		switch {
		case p.mode == ModeConfig:
			pat = indicator.PatternAPMode
		case p.mgr.State() == conn.StateConnecting:
			pat = indicator.PatternConnecting
		case p.mgr.IsConnected():
			pat = indicator.PatternConnected
		default:
			pat = indicator.PatternBoot
		}
		p.ind.SetPattern(pat)
	}
	p.ind.Tick(p.adapter.Snapshot().Presence)
}

// handleConnected services a completed join: leave config mode if it was
// active, notify the adapter exactly once per link, start announcement,
// and hold the connected pattern briefly so the join is visible.
func (p *Provisioner) handleConnected() {
	p.pendingConfig = ""
	if p.mode == ModeConfig {
		p.exitConfig()
	}

	if !p.notified {
		p.adapter.WiFiConnected()
		p.notified = true
	}

	p.startAnnouncer()

	p.ind.SetPattern(indicator.PatternConnected)
	if p.flashDelay > 0 {
		time.Sleep(p.flashDelay)
	}
}

// startAnnouncer brings the mDNS advertisement up if it is not already
// running. An empty device name disables announcement.
func (p *Provisioner) startAnnouncer() {
	if p.cfg.DeviceName == "" || p.ann.Running() {
		return
	}
	if err := p.ann.Start(); err != nil {
		logging.Warn("mDNS announcement failed", zap.Error(err))
	}
}

// handleDisconnected notifies the adapter of link loss. The connection
// manager retries on its own; config mode is only re-entered if that
// retry times out.
func (p *Provisioner) handleDisconnected() {
	p.notified = false
	p.adapter.WiFiDisconnected()
	p.ann.Stop()
}

// enterConfig raises the provisioning access point: combined AP+station
// radio mode, AP at the fixed portal address, DNS redirector up.
func (p *Provisioner) enterConfig(reason string) error {
	if p.mode == ModeConfig {
		return nil
	}

	logging.LogModeChange(ModeNormal.String(), ModeConfig.String(), reason)

	if err := p.radio.SetMode(radio.ModeStationAP); err != nil {
		return fmt.Errorf("failed to set AP_STA mode: %w", err)
	}
	if err := p.radio.StartAccessPoint(radio.APConfig{
		SSID:       p.cfg.APSSID,
		Passphrase: p.cfg.APPassphrase,
		Channel:    p.cfg.APChannel,
		Addr:       p.cfg.APAddr,
	}); err != nil {
		// Roll back to a clean NORMAL state; the tick loop retries.
		if merr := p.radio.SetMode(radio.ModeStation); merr != nil {
			logging.Warn("failed to restore station mode", zap.Error(merr))
		}
		return fmt.Errorf("failed to start access point: %w", err)
	}
	if err := p.redirect.Start(); err != nil {
		if serr := p.radio.StopAccessPoint(); serr != nil {
			logging.Warn("failed to stop access point", zap.Error(serr))
		}
		if merr := p.radio.SetMode(radio.ModeStation); merr != nil {
			logging.Warn("failed to restore station mode", zap.Error(merr))
		}
		return fmt.Errorf("failed to start DNS redirector: %w", err)
	}

	p.mode = ModeConfig
	p.pendingConfig = ""
	p.adapter.EnterConfigMode()
	p.ind.SetPattern(indicator.PatternAPMode)
	return nil
}

// exitConfig tears the portal down. The redirector stops before the AP
// so no stale portal DNS answer is given once the mode is normal.
func (p *Provisioner) exitConfig() {
	logging.LogModeChange(ModeConfig.String(), ModeNormal.String(), "station connected")

	p.redirect.Stop()
	if err := p.radio.StopAccessPoint(); err != nil {
		logging.Warn("failed to stop access point", zap.Error(err))
	}
	if err := p.radio.SetMode(radio.ModeStation); err != nil {
		logging.Warn("failed to restore station mode", zap.Error(err))
	}

	p.mode = ModeNormal
	p.adapter.ExitConfigMode()
}

// publishStatus replaces the snapshot the control-plane handlers read.
func (p *Provisioner) publishStatus() {
	st := portal.Status{
		ConfigMode: p.mode == ModeConfig,
		Connected:  p.mgr.IsConnected(),
		IP:         p.mgr.LocalAddr(),
		SSID:       p.mgr.SSID(),
		RSSI:       p.radio.RSSI(),
		APActive:   p.mode == ModeConfig,
		APAddr:     p.cfg.APAddr,
		APSSID:     p.cfg.APSSID,
		Channel:    p.radio.Channel(),
		RadioMode:  p.radio.Mode().String(),
		ConnState:  p.mgr.State().String(),
	}

	p.mu.Lock()
	p.status = st
	p.mu.Unlock()
}
