package portal

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// probePaths are the well-known URLs client operating systems request to
// detect a captive portal. Each redirects to the portal root while the
// access point is active.
var probePaths = []string{
	"/generate_204",       // Android
	"/generate204",        // Android (older)
	"/hotspot-detect.html", // iOS/macOS
	"/ncsi.txt",           // Windows NCSI
	"/connecttest.txt",    // Windows
	"/redirect",           // Microsoft
}

// apiPrefixes mark paths that always answer with a JSON 404 rather than
// the provisioning page when unmatched.
var apiPrefixes = []string{
	"/api/", "/connected", "/presence", "/status", "/data",
	"/settings", "/restart", "/reset", "/scan", "/network", "/led",
}

func (s *Server) router() http.Handler {
	mux := chi.NewRouter()
	mux.Use(s.logRequests)

	for _, path := range probePaths {
		mux.Get(path, s.handleProbe)
	}
	mux.Get("/favicon.ico", s.handleFavicon)
	mux.Get("/", s.handleRoot)
	mux.Get("/events", s.handleEvents)

	// The API is served both bare and under /api/ for compatibility with
	// older controller integrations.
	s.registerAPI(mux)
	mux.Route("/api", func(r chi.Router) {
		s.registerAPI(r)
	})

	mux.NotFound(s.handleNotFound)
	mux.MethodNotAllowed(s.handleMethodNotAllowed)
	return mux
}

func (s *Server) registerAPI(r chi.Router) {
	r.Get("/connected", s.handleConnected)
	r.Get("/presence", s.handlePresence)
	r.Get("/status", s.handleStatus)
	r.Get("/data", s.handleData)
	r.Get("/device", s.handleDevice)
	r.Get("/scan", s.handleScan)
	r.Get("/network", s.handleNetwork)
	r.Get("/settings", s.handleSettings)
	r.Post("/settings", s.handleSettings)
	r.Post("/restart", s.handleRestart)
	r.Post("/reset", s.handleReset)
	r.Post("/led", s.handleLED)
	r.Post("/save", s.handleSave)
}

// isAPIPath reports whether an unmatched path should get a JSON 404
// instead of the provisioning page.
func isAPIPath(path string) bool {
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
