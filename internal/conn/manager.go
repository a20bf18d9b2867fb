package conn

import (
	"fmt"
	"net/netip"

	"go.uber.org/zap"

	"github.com/lovihome/lovid/internal/credentials"
	"github.com/lovihome/lovid/internal/logging"
	"github.com/lovihome/lovid/internal/radio"
)

// ConnectTimeoutTicks is how many Tick calls a join may stay in the
// connecting state before it is declared failed. At the provisioner's
// one-second cadence this is a 30 second timeout.
const ConnectTimeoutTicks = 30

// State is the connection manager's state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateFailed
)

// String returns the state name used in logs and the /network payload.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event is a terminal connection event surfaced from Tick. Events are
// delivered synchronously to the provisioner, exactly one per transition.
type Event int

const (
	// EventNone means no terminal transition happened this tick.
	EventNone Event = iota
	// EventConnected fires once when a join completes.
	EventConnected
	// EventDisconnected fires once when an established link is lost.
	EventDisconnected
	// EventFailed fires once when a join times out.
	EventFailed
)

// String returns the event name used in logs.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Manager owns the station side of the radio: it initiates asynchronous
// joins from stored credentials and advances the connect/retry/timeout
// state machine one non-blocking step per Tick. It is driven exclusively
// from the provisioner's tick loop.
type Manager struct {
	radio radio.Radio
	store credentials.Store

	state State
	creds credentials.Credentials
	ticks int // ticks spent in StateConnecting
}

// NewManager creates a connection manager over the given radio and
// credential store.
func NewManager(r radio.Radio, store credentials.Store) *Manager {
	return &Manager{radio: r, store: store}
}

// Connect attempts to start an asynchronous join using stored credentials.
// It returns false immediately, with no attempt made, when no SSID is
// stored or the manager is already connected; false signals the caller to
// enter config mode (or leave the established link alone). Calling Connect
// while a join is in flight is a no-op that reports true.
func (m *Manager) Connect() bool {
	switch m.state {
	case StateConnecting:
		// An attempt is outstanding; never preempt it.
		return true
	case StateConnected:
		return false
	}

	creds, err := m.store.Load()
	if err != nil {
		logging.Error("failed to load credentials", zap.Error(err))
		return false
	}
	if !creds.Configured() {
		return false
	}

	m.creds = creds
	m.startAttempt()
	return true
}

// startAttempt initiates the join and arms the timeout. A radio error at
// initiation is not terminal; the attempt simply runs out the timeout
// unless a later poll sees the link up.
func (m *Manager) startAttempt() {
	if err := m.radio.StartStation(m.creds.SSID, m.creds.Passphrase); err != nil {
		logging.Warn("station join initiation failed",
			zap.String("ssid", m.creds.SSID), zap.Error(err))
	}
	m.state = StateConnecting
	m.ticks = 0
	logging.LogConnectionEvent("connecting", m.creds.SSID, "")
}

// Tick advances the state machine one non-blocking step and returns the
// terminal event of this tick, if any.
func (m *Manager) Tick() Event {
	switch m.state {
	case StateConnecting:
		up, err := m.radio.StationUp()
		if err != nil {
			logging.Debug("station status poll failed", zap.Error(err))
		}
		if up {
			m.state = StateConnected
			m.ticks = 0
			logging.LogConnectionEvent("connected", m.radio.SSID(), m.radio.LocalAddr().String())
			return EventConnected
		}
		m.ticks++
		if m.ticks >= ConnectTimeoutTicks {
			m.state = StateFailed
			logging.LogConnectionEvent("failed", m.creds.SSID, "")
			return EventFailed
		}

	case StateConnected:
		up, err := m.radio.StationUp()
		if err != nil {
			logging.Debug("station status poll failed", zap.Error(err))
		}
		if !up {
			// Link lost. Re-arm a fresh attempt with the stored
			// credentials; if that times out, the failed event will
			// push the provisioner into config mode.
			logging.LogConnectionEvent("disconnected", m.creds.SSID, "")
			m.startAttempt()
			return EventDisconnected
		}
	}
	return EventNone
}

// State returns the current connection state.
func (m *Manager) State() State {
	return m.state
}

// IsConnected reports whether the station link is established.
func (m *Manager) IsConnected() bool {
	return m.state == StateConnected
}

// LocalAddr returns the station address, or the zero Addr when not
// connected.
func (m *Manager) LocalAddr() netip.Addr {
	if m.state != StateConnected {
		return netip.Addr{}
	}
	return m.radio.LocalAddr()
}

// SSID returns the SSID of the established link, or empty.
func (m *Manager) SSID() string {
	if m.state != StateConnected {
		return ""
	}
	return m.creds.SSID
}
