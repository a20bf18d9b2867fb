// Package discovery provides mDNS-based discovery of Lovi devices.
//
// This package implements multicast DNS (mDNS) service discovery to
// automatically locate Lovi devices on the local network. Provisioned
// devices advertise themselves using the "_lovi._tcp" service type.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Broadcasts mDNS queries on the local network
//  2. Listens for service advertisements from Lovi devices
//  3. Collects device information from the advertised TXT records
//     (MAC, device type, model, firmware version, capabilities)
//  4. Returns a list of discovered devices after the timeout period
//
// # Usage Example
//
//	// Discover devices with 10-second timeout
//	devices, err := discovery.ScanForDevices(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, device := range devices {
//	    fmt.Printf("Found: %s at %s (MAC: %s)\n",
//	        device.Name, device.IP, device.MAC)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery
