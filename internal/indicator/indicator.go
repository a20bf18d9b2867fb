package indicator

import (
	"fmt"
	"sync"
)

// Pattern is a named LED pattern. The provisioner selects the pattern from
// the current provisioning state each tick.
type Pattern int

const (
	// PatternBoot plays during startup.
	PatternBoot Pattern = iota
	// PatternConnecting plays while a station connection attempt is in flight.
	PatternConnecting
	// PatternConnected plays briefly after a successful connection.
	PatternConnected
	// PatternAPMode plays while the access point / captive portal is active.
	PatternAPMode
	// PatternOn holds the LED solid on (manual override).
	PatternOn
	// PatternOff holds the LED off (manual override).
	PatternOff
)

// String returns the pattern name used in logs and API payloads.
func (p Pattern) String() string {
	switch p {
	case PatternBoot:
		return "boot"
	case PatternConnecting:
		return "connecting"
	case PatternConnected:
		return "connected"
	case PatternAPMode:
		return "ap_mode"
	case PatternOn:
		return "on"
	case PatternOff:
		return "off"
	default:
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
}

// Indicator drives the device status LED. Implementations render the
// current pattern one step per Tick.
type Indicator interface {
	// SetPattern selects the active pattern.
	SetPattern(Pattern)

	// Tick renders one pattern step. The presence flag lets patterns
	// reflect detection state (e.g. brighter while presence is detected).
	Tick(presence bool)

	// SetState forces the LED on or off, taking it out of its automatic
	// pattern until the next SetPattern call.
	SetState(on bool)

	// Overridden reports whether SetState is currently holding the LED.
	Overridden() bool
}

// Virtual is an in-memory Indicator used in tests and on builds without a
// physical LED. It records the most recent pattern and state.
type Virtual struct {
	mu       sync.Mutex
	pattern  Pattern
	manual   bool
	on       bool
	presence bool
	ticks    int
}

// NewVirtual creates a virtual indicator showing the boot pattern.
func NewVirtual() *Virtual {
	return &Virtual{pattern: PatternBoot}
}

func (v *Virtual) SetPattern(p Pattern) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pattern = p
	v.manual = false
}

func (v *Virtual) Tick(presence bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.presence = presence
	v.ticks++
}

func (v *Virtual) SetState(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.manual = true
	v.on = on
}

// Pattern returns the most recently set pattern.
func (v *Virtual) Pattern() Pattern {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pattern
}

func (v *Virtual) Overridden() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.manual
}

// Manual reports whether SetState has overridden the automatic pattern,
// and the forced state.
func (v *Virtual) Manual() (overridden, on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.manual, v.on
}
