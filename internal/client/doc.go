// Package client provides an HTTP client for the control API that Lovi
// devices expose on the local network.
//
// A Client is bound to a single device address and retries transient
// failures with exponential backoff. Errors are returned as *DeviceError
// values that classify the failure (network, timeout, HTTP status, parse)
// so callers can distinguish an unreachable device from a misbehaving one.
//
// # Usage Example
//
//	c := client.New("192.168.1.50", 80)
//	info, err := c.DeviceInfo()
//	if err != nil {
//		if client.IsRetryable(err) {
//			// device may come back; try again later
//		}
//		return err
//	}
//	fmt.Println(info.Name, info.FirmwareVersion)
package client
