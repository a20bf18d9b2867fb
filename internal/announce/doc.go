// Package announce advertises the device on the local network over mDNS.
//
// Once the station link is up, the device registers a _lovi._tcp service
// under a hostname derived from its display name (spaces to hyphens,
// lower-cased) with TXT metadata: MAC address, device type, model,
// firmware version, and capability summary. Controllers such as the Home
// Assistant integration discover devices by browsing for this service.
package announce
