// Package radio abstracts the WiFi hardware behind the Radio interface.
//
// Two backends are provided. IWD drives a real interface through iwd's
// D-Bus API (station joins via Network.Connect with a registered credential
// agent, the provisioning access point via the AccessPoint interface) with
// address and link queries over rtnetlink. Sim is an in-memory backend with
// a scriptable link-up delay, used in tests and for bench runs without
// hardware.
//
// StartStation only initiates a join; callers poll StationUp once per tick
// to observe the outcome. This keeps the connection manager's state machine
// non-blocking.
package radio
