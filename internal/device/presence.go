package device

import (
	"sync"
	"time"
)

const (
	defaultSensitivity = 50
	maxDistanceMeters  = 5.0
)

// Presence is the gen-one presence sensor adapter. Readings are sampled
// from the radar frontend each tick; until real frontend wiring lands the
// sampler returns ambient defaults so the control plane stays functional.
type Presence struct {
	mu sync.Mutex

	identity Identity
	started  time.Time

	snapshot    Snapshot
	sensitivity int
	configMode  bool
}

// NewPresence creates the presence adapter with the given display name and
// firmware version.
func NewPresence(name, id, firmwareVersion string) *Presence {
	p := &Presence{
		identity: Identity{
			Name:            name,
			ID:              id,
			Model:           "Lovi Presence",
			DeviceType:      TypePresenceGenOne,
			FirmwareVersion: firmwareVersion,
			Manufacturer:    "Lovi",
		},
		started:     time.Now(),
		sensitivity: defaultSensitivity,
	}
	// Seed the snapshot so the data endpoints report real defaults
	// before the first sampling tick and while in config mode.
	p.snapshot = p.sample()
	return p
}

func (p *Presence) EnterConfigMode() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configMode = true
}

func (p *Presence) ExitConfigMode() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configMode = false
}

func (p *Presence) WiFiConnected() {}

func (p *Presence) WiFiDisconnected() {}

// Tick samples the sensor frontend. Sampling is skipped in config mode so
// the portal stays responsive on constrained hardware.
func (p *Presence) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.configMode {
		return
	}

	p.snapshot = p.sample()
}

// sample reads the radar frontend. Callers hold p.mu once the adapter
// is shared.
func (p *Presence) sample() Snapshot {
	return Snapshot{
		Presence:    false,
		Motion:      false,
		Distance:    0,
		Sensitivity: p.sensitivity,
		Temperature: 22.5,
		Humidity:    45.0,
		Uptime:      int64(time.Since(p.started).Seconds()),
	}
}

func (p *Presence) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := p.snapshot
	// Uptime and sensitivity stay live even while sampling is paused in
	// config mode.
	snap.Uptime = int64(time.Since(p.started).Seconds())
	snap.Sensitivity = p.sensitivity
	return snap
}

func (p *Presence) Capabilities() Capabilities {
	return Capabilities{
		Presence:    true,
		Motion:      true,
		Temperature: true,
		Humidity:    true,
		Sensitivity: true,
		MaxDistance: maxDistanceMeters,
	}
}

func (p *Presence) Identity() Identity {
	return p.identity
}

func (p *Presence) Settings() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]any{
		"sensitivity": p.sensitivity,
	}
}

// ApplySettings accepts a "sensitivity" value between 0 and 100. Unknown
// keys are ignored; it returns true only when something changed.
func (p *Presence) ApplySettings(settings map[string]any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	updated := false
	if v, ok := settings["sensitivity"]; ok {
		// JSON numbers decode as float64
		if f, ok := v.(float64); ok && f >= 0 && f <= 100 {
			p.sensitivity = int(f)
			updated = true
		}
	}
	return updated
}
