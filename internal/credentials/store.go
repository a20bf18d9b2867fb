package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// MaxSSIDLen is the maximum stored SSID length in bytes (802.11 limit).
	MaxSSIDLen = 31
	// MaxPassphraseLen is the maximum stored passphrase length in bytes.
	MaxPassphraseLen = 63

	credentialsFile = "credentials.yaml"
)

// Credentials is a single SSID/passphrase pair. An empty SSID means the
// device is unconfigured.
type Credentials struct {
	SSID       string `yaml:"ssid" json:"ssid"`
	Passphrase string `yaml:"passphrase" json:"passphrase"`
}

// Configured reports whether the credentials contain a usable SSID.
func (c Credentials) Configured() bool {
	return c.SSID != ""
}

// Truncate returns a copy with SSID and passphrase deterministically cut to
// the storage limits. Oversized input never overflows storage.
func (c Credentials) Truncate() Credentials {
	if len(c.SSID) > MaxSSIDLen {
		c.SSID = c.SSID[:MaxSSIDLen]
	}
	if len(c.Passphrase) > MaxPassphraseLen {
		c.Passphrase = c.Passphrase[:MaxPassphraseLen]
	}
	return c
}

// Store persists and retrieves the device's WiFi credentials.
type Store interface {
	// Load returns the stored credentials. A missing record is not an
	// error; it returns zero-value Credentials.
	Load() (Credentials, error)

	// Save persists the credentials, truncating oversized fields.
	Save(Credentials) error

	// Has reports whether a usable SSID is stored.
	Has() bool

	// Clear removes the stored credentials (factory reset).
	Clear() error
}

// FileStore is a Store backed by a YAML file in a state directory.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created
// with user-only permissions if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, credentialsFile)}, nil
}

// Load reads the credentials file. A missing file yields empty credentials.
func (s *FileStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds.Truncate(), nil
}

// Save writes the credentials file with user-only permissions.
func (s *FileStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(creds.Truncate())
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Has reports whether a non-empty SSID is stored.
func (s *FileStore) Has() bool {
	creds, err := s.Load()
	if err != nil {
		return false
	}
	return creds.Configured()
}

// Clear removes the credentials file. Clearing an empty store is a no-op.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
