package radio

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
)

// Sim is an in-memory Radio used in tests and for bench runs without WiFi
// hardware. The link comes up after ConnectDelay StationUp polls; a
// negative delay keeps the link down forever.
type Sim struct {
	mu sync.Mutex

	// ConnectDelay is the number of StationUp polls before the link
	// reports up. Negative means the join never completes.
	ConnectDelay int

	// Networks is what Scan returns.
	Networks []ScanResult

	mode      Mode
	ssid      string
	pass      string
	polls     int
	up        bool
	forced    bool // link forced down (simulated loss)
	apActive  bool
	apConfig  APConfig
	localAddr netip.Addr
}

// NewSim creates a simulated radio with the link coming up on the third
// status poll.
func NewSim() *Sim {
	return &Sim{ConnectDelay: 3}
}

func (s *Sim) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Sim) SetMode(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	return nil
}

func (s *Sim) StartStation(ssid, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ssid == "" {
		return fmt.Errorf("empty SSID")
	}
	s.ssid = ssid
	s.pass = passphrase
	s.polls = 0
	s.up = false
	s.forced = false
	return nil
}

func (s *Sim) StationUp() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forced {
		return false, nil
	}
	if s.up {
		return true, nil
	}
	if s.ssid == "" || s.ConnectDelay < 0 {
		return false, nil
	}
	s.polls++
	if s.polls >= s.ConnectDelay {
		s.up = true
		s.localAddr = netip.AddrFrom4([4]byte{192, 168, 1, 50})
	}
	return s.up, nil
}

func (s *Sim) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.up = false
	s.ssid = ""
	s.localAddr = netip.Addr{}
	return nil
}

// DropLink simulates losing the station link.
func (s *Sim) DropLink() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.up = false
	s.forced = true
	s.localAddr = netip.Addr{}
}

func (s *Sim) StartAccessPoint(cfg APConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apActive = true
	s.apConfig = cfg
	return nil
}

func (s *Sim) StopAccessPoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apActive = false
	return nil
}

// APActive reports whether the simulated access point is up.
func (s *Sim) APActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apActive
}

func (s *Sim) Scan(ctx context.Context) ([]ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]ScanResult(nil), s.Networks...), nil
}

func (s *Sim) MAC() string {
	return "C4:BE:84:74:86:37"
}

func (s *Sim) LocalAddr() netip.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localAddr
}

func (s *Sim) SSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.up {
		return ""
	}
	return s.ssid
}

func (s *Sim) RSSI() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.up {
		return 0
	}
	return -55
}

func (s *Sim) Channel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.apActive {
		return s.apConfig.Channel
	}
	return 6
}
