package device

import "time"

// Null is the adapter used when no device variant is attached. Every hook
// degrades to a safe default payload so the control plane never fails on a
// missing collaborator.
type Null struct {
	started time.Time
}

// NewNull creates a no-device adapter.
func NewNull() *Null {
	return &Null{started: time.Now()}
}

func (n *Null) EnterConfigMode()  {}
func (n *Null) ExitConfigMode()   {}
func (n *Null) WiFiConnected()    {}
func (n *Null) WiFiDisconnected() {}
func (n *Null) Tick()             {}

func (n *Null) Snapshot() Snapshot {
	return Snapshot{Uptime: int64(time.Since(n.started).Seconds())}
}

func (n *Null) Capabilities() Capabilities {
	return Capabilities{}
}

func (n *Null) Identity() Identity {
	return Identity{
		Name:         "Unknown",
		ID:           "unknown",
		Model:        "Unknown",
		DeviceType:   TypeUnknown,
		Manufacturer: "Lovi",
	}
}

func (n *Null) Settings() map[string]any {
	return map[string]any{}
}

// ApplySettings always reports that nothing was updated.
func (n *Null) ApplySettings(map[string]any) bool {
	return false
}
