package radio

import (
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/lovihome/lovid/internal/logging"
)

const (
	agentPath     = "/com/lovihome/lovid/agent"
	agentIface    = "net.connman.iwd.Agent"
	agentMgrIface = "net.connman.iwd.AgentManager"
)

// agent implements the net.connman.iwd.Agent D-Bus interface. iwd calls
// RequestPassphrase when joining a PSK network; the passphrase is staged by
// StartStation just before Network.Connect.
type agent struct {
	conn    *dbus.Conn
	mu      sync.Mutex
	pending map[dbus.ObjectPath]string
}

func newAgent(conn *dbus.Conn) *agent {
	return &agent{
		conn:    conn,
		pending: make(map[dbus.ObjectPath]string),
	}
}

// stage stores a passphrase for the given network path ahead of a connect
// call.
func (a *agent) stage(network dbus.ObjectPath, passphrase string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[network] = passphrase
}

func (a *agent) clear(network dbus.ObjectPath) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, network)
}

// RequestPassphrase is the iwd agent callback for PSK networks.
func (a *agent) RequestPassphrase(network dbus.ObjectPath) (string, *dbus.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	passphrase, ok := a.pending[network]
	if !ok {
		return "", dbus.NewError(agentIface+".Error.Canceled",
			[]interface{}{"no credential staged"})
	}
	delete(a.pending, network)
	return passphrase, nil
}

// Cancel is called by iwd when a credential request is abandoned.
func (a *agent) Cancel(reason string) *dbus.Error {
	logging.Debug("iwd agent request cancelled: " + reason)
	a.mu.Lock()
	a.pending = make(map[dbus.ObjectPath]string)
	a.mu.Unlock()
	return nil
}

// Release is called by iwd when the agent is unregistered.
func (a *agent) Release() *dbus.Error {
	a.mu.Lock()
	a.pending = make(map[dbus.ObjectPath]string)
	a.mu.Unlock()
	return nil
}

// register exports the agent on the bus and registers it with iwd.
func (a *agent) register() error {
	if err := a.conn.Export(a, dbus.ObjectPath(agentPath), agentIface); err != nil {
		return err
	}
	obj := a.conn.Object(iwdService, "/net/connman/iwd")
	return obj.Call(agentMgrIface+".RegisterAgent", 0, dbus.ObjectPath(agentPath)).Err
}

func (a *agent) unregister() error {
	obj := a.conn.Object(iwdService, "/net/connman/iwd")
	return obj.Call(agentMgrIface+".UnregisterAgent", 0, dbus.ObjectPath(agentPath)).Err
}
