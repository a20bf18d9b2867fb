package provisioner

import (
	"errors"
	"testing"

	"github.com/lovihome/lovid/internal/conn"
	"github.com/lovihome/lovid/internal/credentials"
	"github.com/lovihome/lovid/internal/device"
	"github.com/lovihome/lovid/internal/indicator"
	"github.com/lovihome/lovid/internal/portal"
	"github.com/lovihome/lovid/internal/radio"
)

// recordAdapter counts lifecycle notifications.
type recordAdapter struct {
	*device.Null
	connected    int
	disconnected int
	enterConfig  int
	exitConfig   int
}

func newRecordAdapter() *recordAdapter {
	return &recordAdapter{Null: device.NewNull()}
}

func (r *recordAdapter) WiFiConnected()    { r.connected++ }
func (r *recordAdapter) WiFiDisconnected() { r.disconnected++ }
func (r *recordAdapter) EnterConfigMode()  { r.enterConfig++ }
func (r *recordAdapter) ExitConfigMode()   { r.exitConfig++ }

type fixture struct {
	p       *Provisioner
	sim     *radio.Sim
	store   *credentials.FileStore
	led     *indicator.Virtual
	adapter *recordAdapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := credentials.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	f := &fixture{
		sim:     radio.NewSim(),
		store:   store,
		led:     indicator.NewVirtual(),
		adapter: newRecordAdapter(),
	}
	f.p = New(Config{
		APSSID:  "Lovi-Setup",
		APAddr:  radio.DefaultAPAddr,
		DNSPort: 0, // ephemeral, keeps the redirector unprivileged
	}, f.sim, store, f.adapter, f.led)
	f.p.flashDelay = 0
	return f
}

func (f *fixture) saveCreds(t *testing.T) {
	t.Helper()
	if err := f.store.Save(credentials.Credentials{SSID: "HomeNet", Passphrase: "pw"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

// tickUntilConnected advances at most max ticks and fails if the link
// never comes up.
func (f *fixture) tickUntilConnected(t *testing.T, max int) {
	t.Helper()
	for i := 0; i < max; i++ {
		f.p.tick()
		if f.p.Status().Connected {
			return
		}
	}
	t.Fatalf("link did not come up within %d ticks", max)
}

func TestStartupWithoutCredentialsEntersConfig(t *testing.T) {
	f := newFixture(t)
	defer f.p.redirect.Stop()

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}

	st := f.p.Status()
	if !st.ConfigMode {
		t.Error("expected config mode with no stored credentials")
	}
	if st.ConnState != "idle" {
		t.Errorf("ConnState = %q, want idle (no attempt was burned)", st.ConnState)
	}
	if !f.p.redirect.Running() {
		t.Error("DNS redirector should run in config mode")
	}
	if !f.sim.APActive() {
		t.Error("access point should be up in config mode")
	}
	if f.sim.Mode() != radio.ModeStationAP {
		t.Errorf("radio mode = %v, want AP_STA", f.sim.Mode())
	}
	if f.adapter.enterConfig != 1 {
		t.Errorf("EnterConfigMode called %d times, want 1", f.adapter.enterConfig)
	}
	if f.led.Pattern() != indicator.PatternAPMode {
		t.Errorf("indicator pattern = %v, want PatternAPMode", f.led.Pattern())
	}
}

func TestStartupWithCredentialsBeginsJoin(t *testing.T) {
	f := newFixture(t)
	f.saveCreds(t)

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}

	st := f.p.Status()
	if st.ConfigMode {
		t.Error("config mode must not start when credentials exist")
	}
	if st.ConnState != "connecting" {
		t.Errorf("ConnState = %q, want connecting", st.ConnState)
	}
	if f.p.redirect.Running() {
		t.Error("DNS redirector must not run in normal mode")
	}
	if f.sim.APActive() {
		t.Error("access point must not be up in normal mode")
	}
}

func TestJoinCompletionExitsConfigMode(t *testing.T) {
	f := newFixture(t)

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if !f.p.Status().ConfigMode {
		t.Fatal("precondition: config mode")
	}

	// Operator enters credentials through the portal.
	f.saveCreds(t)
	f.p.Requests() <- portal.RequestReconnect

	f.tickUntilConnected(t, 10)

	st := f.p.Status()
	if st.ConfigMode {
		t.Error("config mode should end when the join completes")
	}
	if f.p.redirect.Running() {
		t.Error("DNS redirector left running after config mode ended")
	}
	if f.sim.APActive() {
		t.Error("access point left up after config mode ended")
	}
	if f.sim.Mode() != radio.ModeStation {
		t.Errorf("radio mode = %v, want STA", f.sim.Mode())
	}
	if f.adapter.connected != 1 {
		t.Errorf("WiFiConnected called %d times, want 1", f.adapter.connected)
	}
	if f.adapter.exitConfig != 1 {
		t.Errorf("ExitConfigMode called %d times, want 1", f.adapter.exitConfig)
	}
	if f.led.Pattern() != indicator.PatternConnected {
		t.Errorf("indicator pattern = %v, want PatternConnected", f.led.Pattern())
	}
}

func TestJoinTimeoutEntersConfigMode(t *testing.T) {
	f := newFixture(t)
	defer f.p.redirect.Stop()
	f.saveCreds(t)
	f.sim.ConnectDelay = -1 // the join never completes

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}

	for i := 0; i < conn.ConnectTimeoutTicks; i++ {
		if f.p.Status().ConfigMode {
			t.Fatalf("entered config mode early, tick %d", i)
		}
		f.p.tick()
	}

	st := f.p.Status()
	if !st.ConfigMode {
		t.Error("expected config mode after the join timed out")
	}
	if !f.p.redirect.Running() {
		t.Error("DNS redirector should run after fallback to config mode")
	}
	if f.adapter.enterConfig != 1 {
		t.Errorf("EnterConfigMode called %d times, want 1", f.adapter.enterConfig)
	}
}

func TestRepeatedTicksDoNotDoubleNotify(t *testing.T) {
	f := newFixture(t)
	f.saveCreds(t)

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	f.tickUntilConnected(t, 10)

	for i := 0; i < 5; i++ {
		f.p.tick()
	}
	if f.adapter.connected != 1 {
		t.Errorf("WiFiConnected called %d times, want 1", f.adapter.connected)
	}
}

func TestLinkLossNotifiesAdapterWithoutConfigReentry(t *testing.T) {
	f := newFixture(t)
	defer f.p.redirect.Stop()
	f.saveCreds(t)

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	f.tickUntilConnected(t, 10)

	f.sim.ConnectDelay = -1 // the retry will not complete
	f.sim.DropLink()
	f.p.tick()

	if f.adapter.disconnected != 1 {
		t.Errorf("WiFiDisconnected called %d times, want 1", f.adapter.disconnected)
	}
	st := f.p.Status()
	if st.ConfigMode {
		t.Error("link loss must not enter config mode directly")
	}
	if st.ConnState != "connecting" {
		t.Errorf("ConnState = %q, want connecting (automatic retry)", st.ConnState)
	}

	// Only the retry's own timeout brings the portal up.
	for i := 0; i < conn.ConnectTimeoutTicks; i++ {
		f.p.tick()
	}
	if !f.p.Status().ConfigMode {
		t.Error("expected config mode after the retry timed out")
	}
}

func TestReconnectRequestRejectedWhileConnected(t *testing.T) {
	f := newFixture(t)
	f.saveCreds(t)

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	f.tickUntilConnected(t, 10)

	f.p.Requests() <- portal.RequestReconnect
	f.p.tick()

	st := f.p.Status()
	if !st.Connected || st.ConnState != "connected" {
		t.Errorf("established link disturbed by reconnect request: %+v", st)
	}
}

func TestIndicatorFollowsConnectionState(t *testing.T) {
	f := newFixture(t)
	f.saveCreds(t)

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}

	f.p.tick()
	if f.led.Pattern() != indicator.PatternConnecting {
		t.Errorf("pattern during join = %v, want PatternConnecting", f.led.Pattern())
	}

	f.tickUntilConnected(t, 10)
	f.p.tick()
	if f.led.Pattern() != indicator.PatternConnected {
		t.Errorf("pattern after join = %v, want PatternConnected", f.led.Pattern())
	}
}

func TestTelemetryPublishedEachTick(t *testing.T) {
	f := newFixture(t)
	f.saveCreds(t)

	var frames int
	f.p.SetPublisher(func(device.Snapshot) { frames++ })

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}
	for i := 0; i < 3; i++ {
		f.p.tick()
	}
	if frames != 3 {
		t.Errorf("published %d frames over 3 ticks, want 3", frames)
	}
}

func TestManualLEDOverrideHeldAcrossTicks(t *testing.T) {
	f := newFixture(t)
	f.saveCreds(t)

	if err := f.p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}

	// The control plane forces the LED on (pattern first, then state,
	// the same order the /led handler uses).
	f.led.SetPattern(indicator.PatternOn)
	f.led.SetState(true)

	for i := 0; i < 3; i++ {
		f.p.tick()
	}
	if overridden, on := f.led.Manual(); !overridden || !on {
		t.Errorf("indicator override = (%v, %v) after ticks, want (true, true)", overridden, on)
	}
	if f.led.Pattern() != indicator.PatternOn {
		t.Errorf("pattern = %v while overridden, want PatternOn", f.led.Pattern())
	}

	// The next link transition resumes automatic patterns.
	f.tickUntilConnected(t, 10)
	if overridden, _ := f.led.Manual(); overridden {
		t.Error("override should be released by the link transition")
	}
	if f.led.Pattern() != indicator.PatternConnected {
		t.Errorf("pattern after join = %v, want PatternConnected", f.led.Pattern())
	}
}

// flakyAPRadio fails a set number of access point starts before behaving.
type flakyAPRadio struct {
	*radio.Sim
	apFailures int
}

func (r *flakyAPRadio) StartAccessPoint(cfg radio.APConfig) error {
	if r.apFailures > 0 {
		r.apFailures--
		return errors.New("interface busy")
	}
	return r.Sim.StartAccessPoint(cfg)
}

func TestConfigEntryRetriedAfterAccessPointFailure(t *testing.T) {
	store, err := credentials.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	rdo := &flakyAPRadio{Sim: radio.NewSim(), apFailures: 1}
	adapter := newRecordAdapter()
	led := indicator.NewVirtual()

	p := New(Config{
		APSSID:  "Lovi-Setup",
		APAddr:  radio.DefaultAPAddr,
		DNSPort: 0,
	}, rdo, store, adapter, led)
	p.flashDelay = 0
	defer p.redirect.Stop()

	if err := p.startup(); err != nil {
		t.Fatalf("startup: %v", err)
	}

	// Entry failed: nothing may be left half-raised.
	if p.Status().ConfigMode {
		t.Fatal("config mode reported while the portal never came up")
	}
	if rdo.Sim.APActive() {
		t.Error("access point left up after a failed entry")
	}
	if rdo.Sim.Mode() != radio.ModeStation {
		t.Errorf("radio mode = %v after rollback, want station", rdo.Sim.Mode())
	}
	if adapter.enterConfig != 0 {
		t.Error("adapter notified of config mode before the portal was up")
	}

	p.tick()

	st := p.Status()
	if !st.ConfigMode {
		t.Fatal("config entry was not retried on the next tick")
	}
	if !p.redirect.Running() {
		t.Error("DNS redirector should run after the retried entry")
	}
	if !rdo.Sim.APActive() {
		t.Error("access point should be up after the retried entry")
	}
	if adapter.enterConfig != 1 {
		t.Errorf("EnterConfigMode called %d times, want 1", adapter.enterConfig)
	}
}
