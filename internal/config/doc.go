// Package config provides user configuration management for the Lovi tools.
//
// This package manages a YAML-based configuration file that stores
// user-defined metadata for Lovi devices seen on the network, including
// nicknames, last known addresses, and discovery preferences. The
// configuration follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/lovi/config.yaml or $HOME/.config/lovi/config.yaml
//   - macOS: $HOME/.config/lovi/config.yaml
//   - Windows: %LOCALAPPDATA%\lovi\config.yaml
//
// # Security
//
// IMPORTANT: This package NEVER stores Wi-Fi passwords or other
// credentials. Those live only on the device itself.
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Record a discovery result and a friendly name
//	registry.UpdateDeviceSighting("C4:BE:84:74:86:37", "192.168.1.50", "Lovi Presence", "1.0.0")
//	registry.SetDeviceNickname("C4:BE:84:74:86:37", "Living Room")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
