package dnsredirect

import (
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/lovihome/lovid/internal/logging"
)

// answerTTL is the TTL of the fixed portal answer. Short, so clients
// re-resolve promptly after provisioning completes.
const answerTTL = 60

// Redirector is a minimal DNS responder that answers every query with the
// access point's own IPv4 address, forcing captive-portal clients onto the
// control-plane server. It runs only while the access point is active.
type Redirector struct {
	mu      sync.Mutex
	addr    netip.Addr
	port    int
	server  *dns.Server
	running bool
}

// New creates a redirector that answers with the given portal address.
// The port is normally 53; tests bind an ephemeral port. The listener
// binds the wildcard address: the answer address belongs to the AP
// interface, which may not exist yet when Start runs.
func New(addr netip.Addr, port int) *Redirector {
	return &Redirector{addr: addr, port: port}
}

// Start binds the UDP listener and begins answering. Starting a running
// redirector is a no-op.
func (r *Redirector) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", r.handleQuery)

	r.server = &dns.Server{
		Addr:    fmt.Sprintf(":%d", r.port),
		Net:     "udp",
		Handler: mux,
	}

	started := make(chan error, 1)
	r.server.NotifyStartedFunc = func() { started <- nil }
	go func() {
		if err := r.server.ListenAndServe(); err != nil {
			select {
			case started <- err:
			default:
				logging.Error("DNS redirector stopped unexpectedly", zap.Error(err))
			}
		}
	}()

	select {
	case err := <-started:
		if err != nil {
			return fmt.Errorf("failed to start DNS redirector: %w", err)
		}
	case <-time.After(2 * time.Second):
		return fmt.Errorf("timed out waiting for DNS redirector to start")
	}

	r.running = true
	logging.Info("DNS redirector started",
		zap.String("addr", r.addr.String()), zap.Int("port", r.port))
	return nil
}

// Stop shuts the listener down. Stopping a stopped redirector is a no-op.
func (r *Redirector) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	if err := r.server.Shutdown(); err != nil {
		logging.Warn("DNS redirector shutdown error", zap.Error(err))
	}
	r.server = nil
	r.running = false
	logging.Info("DNS redirector stopped")
}

// Running reports whether the redirector is serving.
func (r *Redirector) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Addr returns the address every query is answered with.
func (r *Redirector) Addr() netip.Addr {
	return r.addr
}

// handleQuery answers any query with the portal A record. The goal is
// "every query gets a response quickly", not protocol fidelity: non-A
// questions get an empty NOERROR answer so the client falls through to A.
func (r *Redirector) handleQuery(w dns.ResponseWriter, req *dns.Msg) {
	resp := new(dns.Msg)
	resp.SetReply(req)
	resp.Authoritative = true

	for _, q := range req.Question {
		if q.Qtype != dns.TypeA && q.Qtype != dns.TypeANY {
			continue
		}
		resp.Answer = append(resp.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   q.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    answerTTL,
			},
			A: r.addr.AsSlice(),
		})
		logging.LogDNSQuery(w.RemoteAddr().String(), q.Name, r.addr.String())
	}

	if err := w.WriteMsg(resp); err != nil {
		logging.Debug("failed to write DNS response", zap.Error(err))
	}
}
