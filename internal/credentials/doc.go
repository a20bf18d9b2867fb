// Package credentials persists the device's WiFi credentials.
//
// A single SSID/passphrase pair is stored as a YAML record in the daemon's
// state directory. An empty SSID means the device is unconfigured and the
// provisioner will start the captive portal instead of attempting a station
// connection.
//
// Field lengths are bounded by the 802.11 limits (31-byte SSID, 63-byte
// passphrase); oversized values are truncated deterministically on save
// rather than rejected, matching what the device firmware stored in EEPROM.
package credentials
