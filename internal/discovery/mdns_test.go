package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantMAC  string
		wantIP   string
		wantPort int
	}{
		{
			name: "valid device with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "living-room"},
				HostName:      "living-room.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				Text:          []string{"mac=C4:BE:84:74:86:37", "model=Lovi Presence"},
			},
			wantNil:  false,
			wantName: "living-room",
			wantMAC:  "C4:BE:84:74:86:37",
			wantIP:   "192.168.1.50",
			wantPort: 80,
		},
		{
			name: "valid device with custom port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "hallway"},
				HostName:      "hallway.local.",
				Port:          8080,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantNil:  false,
			wantName: "hallway",
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name: "device with no port specified (should default to 80)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bedroom"},
				HostName:      "bedroom.local.",
				Port:          0,
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantNil:  false,
			wantName: "bedroom",
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				HostName:      "ghost.local.",
				Port:          80,
				AddrIPv4:      []net.IP{},
				AddrIPv6:      []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only device",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "attic"},
				HostName:      "attic.local.",
				Port:          80,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantNil:  false,
			wantName: "attic",
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name: "device with both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "kitchen"},
				HostName:      "kitchen.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.60")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantNil:  false,
			wantName: "kitchen",
			wantIP:   "192.168.1.60",
			wantPort: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}

			if device.Name != tt.wantName {
				t.Errorf("device.Name = %v, want %v", device.Name, tt.wantName)
			}

			if tt.wantMAC != "" && device.MAC != tt.wantMAC {
				t.Errorf("device.MAC = %v, want %v", device.MAC, tt.wantMAC)
			}

			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}

			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}

			if device.Hostname != tt.entry.HostName {
				t.Errorf("device.Hostname = %v, want %v", device.Hostname, tt.entry.HostName)
			}

			// Check that DiscoveredAt is recent (within last second)
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_TXTRecords(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "living-room"},
		HostName:      "living-room.local.",
		Port:          80,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
		Text: []string{
			"mac=C4:BE:84:74:86:37",
			"device_type=presence_gen_one",
			"model=Lovi Presence",
			"firmware_version=1.0.0",
			"capabilities=presence,motion,temperature",
			"flag",
		},
	}

	device := scanner.parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	if device.MAC != "C4:BE:84:74:86:37" {
		t.Errorf("device.MAC = %q", device.MAC)
	}
	if device.DeviceType != "presence_gen_one" {
		t.Errorf("device.DeviceType = %q", device.DeviceType)
	}
	if device.Model != "Lovi Presence" {
		t.Errorf("device.Model = %q", device.Model)
	}
	if device.Firmware != "1.0.0" {
		t.Errorf("device.Firmware = %q", device.Firmware)
	}

	wantCaps := []string{"presence", "motion", "temperature"}
	if len(device.Capabilities) != len(wantCaps) {
		t.Fatalf("device.Capabilities = %v, want %v", device.Capabilities, wantCaps)
	}
	for i, c := range wantCaps {
		if device.Capabilities[i] != c {
			t.Errorf("device.Capabilities[%d] = %q, want %q", i, device.Capabilities[i], c)
		}
	}

	// Key without value is preserved in the raw metadata
	if v, ok := device.Metadata["flag"]; !ok || v != "" {
		t.Errorf("device.Metadata[\"flag\"] = %q, %v, want empty present", v, ok)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

// Note: Integration tests with live mDNS discovery require network access
// and a provisioned device on the same segment; they are run manually.
