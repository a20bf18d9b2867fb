// Package provisioner orchestrates Wi-Fi provisioning.
//
// The device is always in one of two modes. In NORMAL mode it behaves as
// a station: joining the stored network, running the device workload,
// and advertising itself over mDNS. In CONFIG mode it raises a local
// access point at a fixed address, answers every DNS query with that
// address, and serves the captive portal so an operator can enter
// credentials.
//
// Transitions are event driven. A join that completes exits CONFIG; a
// join that times out after thirty ticks enters it. Link loss in NORMAL
// mode does not re-enter CONFIG directly: the connection manager retries
// on its own, and only that retry's timeout brings the portal up.
//
// A one-second tick loop is the sole mutator of provisioning state. Each
// tick drains queued control-plane requests, refreshes the status
// indicator, advances the connection manager and dispatches its event,
// runs the device adapter when connected, and publishes a fresh status
// snapshot for the HTTP handlers.
package provisioner
