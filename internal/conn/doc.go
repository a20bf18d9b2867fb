// Package conn owns the asynchronous WiFi connect/retry/timeout logic.
//
// The Manager is a tick-driven state machine: Connect initiates a join
// from stored credentials without blocking, and each Tick polls the radio
// once, returning a terminal Event (connected, disconnected, failed) when
// a transition happens. A join that sees no link after ConnectTimeoutTicks
// polls fails, which the provisioner answers by entering config mode.
//
// There is no mid-attempt cancellation: a Connect call while an attempt is
// in flight is a no-op, and only the timeout retires an attempt.
package conn
