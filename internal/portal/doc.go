// Package portal implements the device's HTTP control plane.
//
// A single server is bound once at startup and stays up across every
// provisioning mode. It serves three surfaces from one listener:
//
//   - Captive portal: the provisioning page at "/", plus the well-known
//     connectivity probe URLs (Android generate_204, Apple
//     hotspot-detect.html, Windows NCSI) which redirect to the portal
//     while the access point is active.
//   - JSON API: device identity, sensor data, network state, Wi-Fi
//     scanning, settings, credential save, restart and factory reset.
//     Every endpoint is registered both bare (e.g. /status) and under
//     /api/ (e.g. /api/status) for controller compatibility.
//   - Telemetry: a websocket stream at /events pushing one sensor
//     snapshot per provisioner tick.
//
// # Concurrency
//
// Handlers never mutate provisioning state directly. They read an
// immutable Status snapshot published by the provisioner each tick, and
// queue actions (such as a reconnect after credentials are saved) on a
// request channel the provisioner drains. Mode transitions therefore
// remain single-writer even though the HTTP server is fully concurrent.
//
// # Usage Example
//
//	srv := portal.New(portal.Config{ListenAddr: ":80"}, portal.Deps{
//	    Adapter:   adapter,
//	    Indicator: led,
//	    Store:     store,
//	    Radio:     rdo,
//	    Status:    prov.Status,
//	    Requests:  prov.Requests(),
//	    Restart:   restart,
//	})
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
package portal
