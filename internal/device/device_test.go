package device

import "testing"

func TestCapabilitiesSummary(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want string
	}{
		{
			name: "presence and motion",
			caps: Capabilities{Presence: true, Motion: true},
			want: "presence,motion",
		},
		{
			name: "all capabilities",
			caps: Capabilities{Presence: true, Motion: true, Temperature: true, Humidity: true, Sensitivity: true},
			want: "presence,motion,temperature,humidity,sensitivity",
		},
		{
			name: "none",
			caps: Capabilities{},
			want: "",
		},
		{
			name: "single",
			caps: Capabilities{Temperature: true},
			want: "temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.caps.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPresenceApplySettings(t *testing.T) {
	tests := []struct {
		name            string
		settings        map[string]any
		wantUpdated     bool
		wantSensitivity int
	}{
		{
			name:            "valid sensitivity",
			settings:        map[string]any{"sensitivity": float64(80)},
			wantUpdated:     true,
			wantSensitivity: 80,
		},
		{
			name:            "out of range",
			settings:        map[string]any{"sensitivity": float64(150)},
			wantUpdated:     false,
			wantSensitivity: defaultSensitivity,
		},
		{
			name:            "wrong type",
			settings:        map[string]any{"sensitivity": "high"},
			wantUpdated:     false,
			wantSensitivity: defaultSensitivity,
		},
		{
			name:            "unknown key",
			settings:        map[string]any{"brightness": float64(10)},
			wantUpdated:     false,
			wantSensitivity: defaultSensitivity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPresence("Lovi-Presence", "abc123", "1.0.0")
			if got := p.ApplySettings(tt.settings); got != tt.wantUpdated {
				t.Errorf("ApplySettings() = %v, want %v", got, tt.wantUpdated)
			}
			if got := p.Settings()["sensitivity"].(int); got != tt.wantSensitivity {
				t.Errorf("sensitivity after apply = %d, want %d", got, tt.wantSensitivity)
			}
		})
	}
}

func TestPresenceSnapshotDefaultsBeforeFirstTick(t *testing.T) {
	p := NewPresence("Lovi-Presence", "abc123", "1.0.0")

	snap := p.Snapshot()
	if snap.Sensitivity != 50 {
		t.Errorf("Sensitivity = %d before first Tick, want default 50", snap.Sensitivity)
	}
	if snap.Temperature == 0 {
		t.Error("Temperature = 0 before first Tick, want seeded ambient reading")
	}
	if snap.Humidity == 0 {
		t.Error("Humidity = 0 before first Tick, want seeded ambient reading")
	}
}

func TestPresenceConfigModeKeepsSnapshotLive(t *testing.T) {
	p := NewPresence("Lovi-Presence", "abc123", "1.0.0")

	p.EnterConfigMode()
	p.Tick() // sampling is paused, the seeded snapshot stays

	p.ApplySettings(map[string]any{"sensitivity": float64(70)})
	if got := p.Snapshot().Sensitivity; got != 70 {
		t.Errorf("snapshot sensitivity = %d in config mode, want 70", got)
	}

	p.ExitConfigMode()
	p.Tick()
	if got := p.Snapshot().Sensitivity; got != 70 {
		t.Errorf("snapshot sensitivity = %d after config mode, want 70", got)
	}
}

func TestNullAdapterDefaults(t *testing.T) {
	n := NewNull()

	if n.ApplySettings(map[string]any{"sensitivity": float64(10)}) {
		t.Error("Null.ApplySettings() = true, want false")
	}
	if got := n.Identity().Name; got != "Unknown" {
		t.Errorf("Null.Identity().Name = %q, want %q", got, "Unknown")
	}
	if got := n.Capabilities().Summary(); got != "" {
		t.Errorf("Null.Capabilities().Summary() = %q, want empty", got)
	}
	snap := n.Snapshot()
	if snap.Presence || snap.Motion {
		t.Errorf("Null.Snapshot() = %+v, want zero readings", snap)
	}
}
