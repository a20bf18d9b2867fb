package device

// Adapter is the contract between the provisioning core and a concrete
// device variant. The provisioner calls the lifecycle hooks on mode
// transitions and Tick once per loop iteration while in normal mode; the
// control plane reads the data hooks. Implementations are selected at
// startup and never swapped at runtime.
type Adapter interface {
	// Lifecycle hooks, invoked by the provisioner.
	EnterConfigMode()
	ExitConfigMode()
	WiFiConnected()
	WiFiDisconnected()

	// Tick advances one unit of device work (sensor sampling).
	Tick()

	// Data hooks, read by the control plane.
	Snapshot() Snapshot
	Capabilities() Capabilities
	Identity() Identity

	// Settings returns the current device settings as a JSON-shaped map.
	Settings() map[string]any

	// ApplySettings applies settings from a decoded JSON body. It returns
	// false when nothing was updated (unknown keys, read-only device).
	ApplySettings(map[string]any) bool
}
