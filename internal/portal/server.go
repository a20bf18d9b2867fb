package portal

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lovihome/lovid/internal/credentials"
	"github.com/lovihome/lovid/internal/device"
	"github.com/lovihome/lovid/internal/indicator"
	"github.com/lovihome/lovid/internal/logging"
	"github.com/lovihome/lovid/internal/radio"
)

//go:embed portal.html
var portalHTML []byte

// Config holds the control-plane server configuration.
type Config struct {
	// ListenAddr is the address the single HTTP listener binds, e.g. ":80".
	ListenAddr string
}

// Deps are the collaborators the handlers read. Adapter may be nil; a null
// adapter is substituted so every endpoint degrades to safe defaults.
type Deps struct {
	Adapter   device.Adapter
	Indicator indicator.Indicator
	Store     credentials.Store
	Radio     radio.Radio

	// Status returns the provisioner's published state snapshot.
	Status func() Status

	// Requests queues actions for the provisioner's tick loop.
	Requests chan<- Request

	// Restart terminates the process after a lifecycle endpoint has
	// acknowledged. Injected so tests can observe it.
	Restart func()
}

// Server is the control-plane HTTP server. A single listener is bound for
// the process lifetime and services captive-portal probes, the JSON API,
// and the provisioning page across all provisioning modes.
type Server struct {
	cfg     Config
	adapter device.Adapter
	ind     indicator.Indicator
	store   credentials.Store
	radio   radio.Radio
	status  func() Status
	reqs    chan<- Request
	restart func()

	started time.Time
	events  *eventHub
	srv     *http.Server
}

// New creates the server and builds its route table. Routes are
// registered once; chi panics on duplicate registrations, so a conflicting
// route is caught at startup.
func New(cfg Config, deps Deps) *Server {
	adapter := deps.Adapter
	if adapter == nil {
		adapter = device.NewNull()
	}

	s := &Server{
		cfg:     cfg,
		adapter: adapter,
		ind:     deps.Indicator,
		store:   deps.Store,
		radio:   deps.Radio,
		status:  deps.Status,
		reqs:    deps.Requests,
		restart: deps.Restart,
		started: time.Now(),
		events:  newEventHub(),
	}

	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start binds the listener and serves until Shutdown. The listener stays
// bound across all mode transitions.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to bind control-plane listener: %w", err)
	}

	logging.Info("control-plane server listening",
		zap.String("addr", s.cfg.ListenAddr))

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error("control-plane server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.events.closeAll()
	return s.srv.Shutdown(ctx)
}

// Publish pushes a telemetry frame to all websocket event subscribers.
// Called by the provisioner once per tick.
func (s *Server) Publish(snap device.Snapshot) {
	s.events.publish(snap)
}
