package indicator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SysfsLED drives a kernel LED through /sys/class/leds/<name>/brightness.
// Patterns are rendered as simple blink cadences, one step per tick.
type SysfsLED struct {
	mu      sync.Mutex
	path    string
	pattern Pattern
	manual  bool
	on      bool
	step    int
}

// NewSysfsLED creates an indicator for the named kernel LED. It fails when
// the LED does not exist so a misconfigured build is caught at startup.
func NewSysfsLED(name string) (*SysfsLED, error) {
	path := filepath.Join("/sys/class/leds", name, "brightness")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("LED %q not available: %w", name, err)
	}
	return &SysfsLED{path: path}, nil
}

func (l *SysfsLED) SetPattern(p Pattern) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pattern = p
	l.manual = false
	l.step = 0
}

func (l *SysfsLED) SetState(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.manual = true
	l.on = on
	l.write(on)
}

func (l *SysfsLED) Overridden() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.manual
}

func (l *SysfsLED) Tick(presence bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.manual {
		return
	}

	l.step++
	switch l.pattern {
	case PatternBoot:
		// Fast blink while booting
		l.write(l.step%2 == 0)
	case PatternConnecting:
		// Alternate every tick
		l.write(l.step%2 == 0)
	case PatternConnected:
		l.write(true)
	case PatternAPMode:
		// Slow blink: two ticks on, two ticks off
		l.write(l.step%4 < 2)
	case PatternOn:
		l.write(true)
	case PatternOff:
		l.write(false)
	}

	// Presence holds the LED solid regardless of blink phase
	if presence && l.pattern != PatternOff {
		l.write(true)
	}
}

func (l *SysfsLED) write(on bool) {
	value := []byte("0")
	if on {
		value = []byte("1")
	}
	// Best effort; a transient sysfs write failure is not actionable here
	_ = os.WriteFile(l.path, value, 0644)
}
