package portal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/lovihome/lovid/internal/credentials"
	"github.com/lovihome/lovid/internal/device"
	"github.com/lovihome/lovid/internal/indicator"
	"github.com/lovihome/lovid/internal/radio"
)

type fixture struct {
	srv       *Server
	store     *credentials.FileStore
	sim       *radio.Sim
	led       *indicator.Virtual
	reqs      chan Request
	restarted chan struct{}
	status    Status
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := credentials.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	f := &fixture{
		store:     store,
		sim:       radio.NewSim(),
		led:       indicator.NewVirtual(),
		reqs:      make(chan Request, 4),
		restarted: make(chan struct{}, 1),
	}
	f.sim.Networks = []radio.ScanResult{
		{SSID: "HomeNet", RSSI: -48, Security: "WPA2"},
		{SSID: "Cafe", RSSI: -77, Security: "OPEN"},
	}

	f.srv = New(Config{ListenAddr: ":0"}, Deps{
		Adapter:   device.NewPresence("Living Room", "lovi-7486", "1.0.0"),
		Indicator: f.led,
		Store:     store,
		Radio:     f.sim,
		Status:    func() Status { return f.status },
		Requests:  f.reqs,
		Restart: func() {
			select {
			case f.restarted <- struct{}{}:
			default:
			}
		},
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	f.srv.router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func TestProbeRedirectsInConfigMode(t *testing.T) {
	f := newFixture(t)
	f.status = Status{
		ConfigMode: true,
		APActive:   true,
		APAddr:     radio.DefaultAPAddr,
	}

	for _, path := range probePaths {
		rec := f.do(t, http.MethodGet, path, "")
		if rec.Code != http.StatusFound {
			t.Errorf("%s: status = %d, want 302", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "http://192.168.4.1/" {
			t.Errorf("%s: Location = %q", path, loc)
		}
	}
}

func TestProbe404InNormalMode(t *testing.T) {
	f := newFixture(t)
	f.status = Status{ConfigMode: false}

	rec := f.do(t, http.MethodGet, "/generate_204", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRootServesPortalPage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "ssid") {
		t.Error("portal page does not contain the ssid field")
	}
}

func TestConnectedReportsLinkState(t *testing.T) {
	f := newFixture(t)

	f.status = Status{Connected: false}
	got := decode(t, f.do(t, http.MethodGet, "/connected", ""))
	if got["connected"] != false {
		t.Error("connected should be false")
	}
	if got["ip"] != "0.0.0.0" {
		t.Errorf("ip = %v, want 0.0.0.0 while disconnected", got["ip"])
	}

	f.status = Status{
		Connected: true,
		IP:        netip.MustParseAddr("192.168.1.50"),
		SSID:      "HomeNet",
		RSSI:      -55,
	}
	got = decode(t, f.do(t, http.MethodGet, "/connected", ""))
	if got["connected"] != true || got["ip"] != "192.168.1.50" || got["ssid"] != "HomeNet" {
		t.Errorf("unexpected payload: %v", got)
	}
}

func TestAPIPrefixAliases(t *testing.T) {
	f := newFixture(t)

	bare := f.do(t, http.MethodGet, "/status", "")
	aliased := f.do(t, http.MethodGet, "/api/status", "")
	if bare.Code != http.StatusOK || aliased.Code != http.StatusOK {
		t.Fatalf("status codes = %d, %d, want 200, 200", bare.Code, aliased.Code)
	}

	if decode(t, bare)["status"] != "healthy" {
		t.Error("bare /status missing healthy marker")
	}
	if decode(t, aliased)["status"] != "healthy" {
		t.Error("/api/status missing healthy marker")
	}
}

func TestScanReturnsVisibleNetworks(t *testing.T) {
	f := newFixture(t)

	got := decode(t, f.do(t, http.MethodGet, "/scan", ""))
	networks, ok := got["networks"].([]any)
	if !ok {
		t.Fatalf("networks missing from payload: %v", got)
	}
	if len(networks) != 2 {
		t.Fatalf("len(networks) = %d, want 2", len(networks))
	}
	first := networks[0].(map[string]any)
	if first["ssid"] != "HomeNet" || first["encryption"] != "WPA2" {
		t.Errorf("unexpected first network: %v", first)
	}
}

func TestDeviceIdentity(t *testing.T) {
	f := newFixture(t)

	got := decode(t, f.do(t, http.MethodGet, "/device", ""))
	if got["name"] != "Living Room" {
		t.Errorf("name = %v", got["name"])
	}
	if got["manufacturer"] != "Lovi" {
		t.Errorf("manufacturer = %v", got["manufacturer"])
	}
	if got["mac_address"] != f.sim.MAC() {
		t.Errorf("mac_address = %v, want %v", got["mac_address"], f.sim.MAC())
	}
}

func TestNetworkStateAcrossModes(t *testing.T) {
	f := newFixture(t)
	f.status = Status{
		ConfigMode: true,
		APActive:   true,
		APAddr:     radio.DefaultAPAddr,
		APSSID:     "Lovi-Setup",
		Connected:  false,
		RadioMode:  "AP_STA",
		Channel:    6,
	}

	got := decode(t, f.do(t, http.MethodGet, "/network", ""))
	if got["ap_ip"] != "192.168.4.1" {
		t.Errorf("ap_ip = %v", got["ap_ip"])
	}
	if got["sta_ip"] != "0.0.0.0" {
		t.Errorf("sta_ip = %v, want 0.0.0.0 while disconnected", got["sta_ip"])
	}
	if got["mode"] != "AP_STA" || got["ap_ssid"] != "Lovi-Setup" {
		t.Errorf("unexpected payload: %v", got)
	}
}

func TestSaveStoresCredentialsAndQueuesReconnect(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/save",
		`{"ssid":"HomeNet","passphrase":"hunter22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	creds, err := f.store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.SSID != "HomeNet" || creds.Passphrase != "hunter22" {
		t.Errorf("stored credentials = %+v", creds)
	}

	select {
	case req := <-f.reqs:
		if req != RequestReconnect {
			t.Errorf("queued request = %v, want RequestReconnect", req)
		}
	default:
		t.Error("no reconnect request queued")
	}
}

func TestSaveWithFullQueueStillAcknowledges(t *testing.T) {
	f := newFixture(t)

	// A full queue already holds a reconnect; save must neither block
	// nor fail.
	for i := 0; i < cap(f.reqs); i++ {
		f.reqs <- RequestReconnect
	}

	rec := f.do(t, http.MethodPost, "/save",
		`{"ssid":"HomeNet","passphrase":"hunter22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	creds, err := f.store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.SSID != "HomeNet" {
		t.Errorf("stored SSID = %q, want HomeNet", creds.SSID)
	}
}

func TestSaveRejectsMissingSSID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/save", `{"passphrase":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if f.store.Has() {
		t.Error("credentials must not be stored on a rejected save")
	}
}

func TestLEDOverride(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/led", `{"state":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode(t, rec)
	if got["success"] != true || got["led"] != true {
		t.Errorf("unexpected payload: %v", got)
	}
	if overridden, on := f.led.Manual(); !overridden || !on {
		t.Errorf("indicator override = (%v, %v), want (true, true)", overridden, on)
	}
	if f.led.Pattern() != indicator.PatternOn {
		t.Errorf("pattern = %v, want PatternOn", f.led.Pattern())
	}
}

func TestLEDRequiresStateParameter(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/led", `{"on":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decode(t, rec); got["error"] != "Missing 'state' parameter" {
		t.Errorf("error = %v", got["error"])
	}
}

func TestLEDRejectsGET(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/led", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("405 must carry a JSON body, Content-Type = %q", ct)
	}
}

func TestSettingsRejectsMalformedJSON(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/settings", `{"sensitivity":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decode(t, rec); got["error"] != "Invalid JSON" {
		t.Errorf("error = %v", got["error"])
	}
}

func TestSettingsApply(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/settings", `{"sensitivity":80}`)
	got := decode(t, rec)
	if got["success"] != true || got["message"] != "Settings updated" {
		t.Errorf("unexpected payload: %v", got)
	}

	rec = f.do(t, http.MethodPost, "/settings", `{"unknown_key":1}`)
	got = decode(t, rec)
	if got["success"] != false || got["message"] != "No settings updated" {
		t.Errorf("unexpected payload for no-op settings: %v", got)
	}
}

func TestRestartAcknowledgesBeforeRestarting(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/restart", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode(t, rec); got["success"] != true {
		t.Errorf("unexpected payload: %v", got)
	}

	select {
	case <-f.restarted:
	case <-time.After(3 * time.Second):
		t.Fatal("restart was never invoked")
	}
}

func TestResetClearsCredentialsThenRestarts(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Save(credentials.Credentials{SSID: "HomeNet", Passphrase: "pw"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	select {
	case <-f.restarted:
	case <-time.After(3 * time.Second):
		t.Fatal("restart was never invoked")
	}
	if f.store.Has() {
		t.Error("credentials survived a factory reset")
	}
}

func TestNotFoundServesPortalInConfigMode(t *testing.T) {
	f := newFixture(t)
	f.status = Status{ConfigMode: true, APAddr: radio.DefaultAPAddr}

	rec := f.do(t, http.MethodGet, "/some/arbitrary/path", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 in config mode", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ssid") {
		t.Error("expected the provisioning page for an unmatched path")
	}
}

func TestNotFoundJSONForAPIPaths(t *testing.T) {
	f := newFixture(t)
	f.status = Status{ConfigMode: true, APAddr: radio.DefaultAPAddr}

	rec := f.do(t, http.MethodGet, "/api/nonexistent", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("API 404 must be JSON, Content-Type = %q", ct)
	}
}

func TestNotFoundJSONInNormalMode(t *testing.T) {
	f := newFixture(t)
	f.status = Status{ConfigMode: false}

	rec := f.do(t, http.MethodGet, "/some/arbitrary/path", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 in normal mode", rec.Code)
	}
}

func TestDataReturnsFullSnapshot(t *testing.T) {
	f := newFixture(t)

	var snap device.Snapshot
	if err := json.Unmarshal(f.do(t, http.MethodGet, "/data", "").Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.Sensitivity == 0 {
		t.Error("snapshot sensitivity should have its default, got 0")
	}
}
