// Package logging provides structured logging for the lovid daemon.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the daemon. It provides both general logging functions
// and specialized functions for provisioning-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (DNS queries, per-tick state, settings bodies)
//   - Info: Normal operations (mode changes, connections, HTTP requests)
//   - Warn: Non-fatal issues (scan failures, announcement retries)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Access point started",
//	    zap.String("ssid", "Lovi-Presence"),
//	    zap.String("addr", "192.168.4.1"),
//	    zap.Int("channel", 6),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogModeChange("normal", "config", "connect timeout")
//	logging.LogConnectionEvent("connected", ssid, addr)
//	logging.LogDNSQuery(remoteAddr, "connectivitycheck.gstatic.com.", apAddr)
//	logging.LogHTTPRequest(remoteAddr, "GET", "/api/status", 200)
//
// # Configuration
//
// Initialize logging at daemon startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given and LOVID_LOG_LEVEL is unset, logging is silent.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
