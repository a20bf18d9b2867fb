package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "lovi"
	configFile = "config.yaml"
)

// registryVersion is the on-disk format version this build reads and writes.
const registryVersion = 1

var (
	loaded   *Registry
	loadOnce sync.Once
	loadErr  error

	// Serializes Save and ReloadRegistry across goroutines.
	fileMu sync.Mutex
)

// GetConfigDir returns the per-user configuration directory:
//   - Linux: $XDG_CONFIG_HOME/lovi or $HOME/.config/lovi
//   - macOS: $HOME/.config/lovi
//   - Windows: %LOCALAPPDATA%\lovi
func GetConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil
	}

	// XDG on Linux; macOS follows the same convention here.
	if runtime.GOOS != "darwin" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// GetConfigPath returns the full path to the registry file.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// LoadRegistry loads the registry from disk, creating an empty default when
// no file exists. Repeated calls return the same instance.
func LoadRegistry() (*Registry, error) {
	loadOnce.Do(func() {
		loaded, loadErr = readRegistry()
	})
	return loaded, loadErr
}

func readRegistry() (*Registry, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if reg.Version != registryVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", reg.Version, registryVersion)
	}

	// Hand-edited files may omit sections.
	if reg.Devices == nil {
		reg.Devices = make(map[string]*Device)
	}
	if reg.Preferences == nil {
		reg.Preferences = defaultPreferences()
	}
	return &reg, nil
}

// Save writes the registry to disk atomically via a temp file and rename.
func (r *Registry) Save() error {
	fileMu.Lock()
	defer fileMu.Unlock()

	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path := filepath.Join(dir, configFile)

	body, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Lovi Configuration File
# This file stores user-defined metadata for Lovi devices seen on the
# network: nicknames, last known addresses, and discovery preferences.
#
# Security Note: WiFi passwords are NEVER stored in this file.
#
# Location: ` + path + `

`)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(header, body...), 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// ReloadRegistry discards the in-memory registry and reads the file again.
// Useful when another process (or the user) edited it.
func ReloadRegistry() (*Registry, error) {
	fileMu.Lock()
	defer fileMu.Unlock()

	loadOnce = sync.Once{}
	return LoadRegistry()
}
