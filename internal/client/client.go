package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// defaultTimeout is the per-request timeout for device HTTP calls
	defaultTimeout = 5 * time.Second
	// maxResponseSize caps response bodies to protect against runaway reads
	maxResponseSize = 256 * 1024
)

// DeviceInfo is the identity a device reports on its /device endpoint.
type DeviceInfo struct {
	Name            string   `json:"name"`
	DeviceID        string   `json:"device_id"`
	DeviceType      string   `json:"device_type"`
	Model           string   `json:"model"`
	Manufacturer    string   `json:"manufacturer"`
	FirmwareVersion string   `json:"firmware_version"`
	MACAddress      string   `json:"mac_address"`
	Capabilities    []string `json:"capabilities"`
}

// ConnectionInfo is the uplink state a device reports on its /connected
// endpoint.
type ConnectionInfo struct {
	Connected bool   `json:"connected"`
	IP        string `json:"ip"`
	SSID      string `json:"ssid"`
	RSSI      int    `json:"rssi"`
}

// Client talks to a device's HTTP control API.
type Client struct {
	// BaseURL is the device endpoint, e.g. "http://192.168.1.50"
	BaseURL string
	// HTTPClient used for requests
	HTTPClient *http.Client
	// MaxRetries is the number of retry attempts for retryable errors
	MaxRetries int
	// RetryDelay is the base delay between retries
	RetryDelay time.Duration
	// MaxRetryDelay caps the backoff growth
	MaxRetryDelay time.Duration
}

// New creates a client for a device at the given address and port.
func New(ip string, port int) *Client {
	return &Client{
		BaseURL: fmt.Sprintf("http://%s:%d", ip, port),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		MaxRetries:    2,
		RetryDelay:    500 * time.Millisecond,
		MaxRetryDelay: 5 * time.Second,
	}
}

// Ping checks device reachability via the /status endpoint.
func (c *Client) Ping() error {
	var out map[string]any
	return c.getJSON("/status", &out)
}

// DeviceInfo fetches the device's identity from /device.
func (c *Client) DeviceInfo() (*DeviceInfo, error) {
	var info DeviceInfo
	if err := c.getJSON("/device", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Connection fetches the device's uplink state from /connected.
func (c *Client) Connection() (*ConnectionInfo, error) {
	var info ConnectionInfo
	if err := c.getJSON("/connected", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Telemetry fetches the device's full data snapshot from /data.
func (c *Client) Telemetry() (map[string]any, error) {
	var data map[string]any
	if err := c.getJSON("/data", &data); err != nil {
		return nil, err
	}
	return data, nil
}

// getJSON performs a GET with retry and decodes the JSON response into out.
func (c *Client) getJSON(path string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(c.backoff(attempt))
		}
		lastErr = c.attemptGetJSON(path, out)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) attemptGetJSON(path string, out any) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return newNetworkError(fmt.Sprintf("GET %s failed", path), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return newNetworkError(fmt.Sprintf("reading %s response", path), err)
	}

	if resp.StatusCode != http.StatusOK {
		return newHTTPError(resp.StatusCode,
			fmt.Sprintf("GET %s returned status %d", path, resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return newParseError(fmt.Sprintf("decoding %s response", path), err)
	}
	return nil
}

// backoff doubles the base delay per attempt, capped at MaxRetryDelay.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.RetryDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.MaxRetryDelay {
			return c.MaxRetryDelay
		}
	}
	if d > c.MaxRetryDelay {
		return c.MaxRetryDelay
	}
	return d
}
