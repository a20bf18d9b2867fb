// Package dnsredirect implements the captive-portal DNS catch-all.
//
// While the configuration access point is active, every DNS query from a
// joined client is answered with the access point's own address, so the
// HTTP probes client operating systems use for captive-portal detection
// all land on the control-plane server. The provisioner starts the
// redirector exactly when the access point comes up and stops it exactly
// when normal connectivity is re-established; both transitions are
// idempotent.
package dnsredirect
