package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lovihome/lovid/internal/client"
	"github.com/lovihome/lovid/internal/config"
	"github.com/lovihome/lovid/internal/discovery"
)

// Scan flags
var (
	scanTimeout  int
	waitMAC      string
	outputFormat string
	probeDevices bool
)

func init() {
	rootCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
	rootCmd.Flags().StringVar(&waitMAC, "mac", "", "Wait for the device with this MAC address")
	rootCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")
	rootCmd.Flags().BoolVar(&probeDevices, "probe", false, "Query each device's API for uplink details")
}

// Output styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	deviceNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

func runScan(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		// Discovery still works without the registry; nicknames are lost.
		fmt.Fprintf(os.Stderr, "Warning: cannot load configuration: %v\n", err)
		registry = config.NewRegistry()
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second
	if !cmd.Flags().Changed("timeout") && registry.Preferences != nil && registry.Preferences.DiscoverTimeout > 0 {
		scanner.Timeout = time.Duration(registry.Preferences.DiscoverTimeout) * time.Second
	}

	if waitMAC != "" {
		fmt.Printf("Waiting for device %s (timeout: %ds)...\n\n", waitMAC, scanTimeout)
		device, err := scanner.WaitForDevice(waitMAC)
		if err != nil {
			return err
		}
		recordSightings(registry, []*discovery.Device{device})
		printDevices(registry, []*discovery.Device{device})
		return nil
	}

	fmt.Printf("Scanning for Lovi devices (timeout: %ds)...\n\n", scanTimeout)

	devices, err := scanner.ScanForDevices()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the device is powered on and provisioned")
		fmt.Println("  - An unprovisioned device only appears on its own setup network")
		fmt.Println("  - Check that your network allows mDNS (UDP port 5353)")
		fmt.Println("  - Try increasing --timeout for slower networks")
		return nil
	}

	recordSightings(registry, devices)
	printDevices(registry, devices)
	return nil
}

// recordSightings updates the registry with the discovery results so later
// runs can show last-seen addresses even when a device is offline.
func recordSightings(registry *config.Registry, devices []*discovery.Device) {
	for _, device := range devices {
		if device.MAC == "" {
			continue
		}
		registry.UpdateDeviceSighting(device.MAC, device.IP, device.Model, device.Firmware)
	}
	if err := registry.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot save configuration: %v\n", err)
	}
}

func printDevices(registry *config.Registry, devices []*discovery.Device) {
	if outputFormat == "json" {
		data, err := json.MarshalIndent(devices, "", "  ")
		if err == nil {
			fmt.Println(string(data))
		}
		return
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Found %d device(s)", len(devices))))
	fmt.Println()

	for i, device := range devices {
		name := device.Name
		if meta := registry.GetDevice(device.MAC); meta != nil && meta.Nickname != "" {
			name = fmt.Sprintf("%s (%s)", meta.Nickname, device.Name)
		}
		fmt.Printf("%d. %s\n", i+1, deviceNameStyle.Render(name))
		printRow("Address", fmt.Sprintf("%s:%d", device.IP, device.Port))
		printRow("MAC", device.MAC)
		printRow("Model", device.Model)
		printRow("Firmware", device.Firmware)
		if summary := device.CapabilitySummary(); summary != "" {
			printRow("Capabilities", summary)
		}
		if probeDevices {
			printUplink(device)
		}
		fmt.Printf("   %s\n", mutedStyle.Render(device.BaseURL()))
		fmt.Println()
	}
}

// printUplink asks the device itself for its Wi-Fi link state. mDNS only
// proves the device is reachable; this shows which network it joined and
// how strong the signal is.
func printUplink(device *discovery.Device) {
	c := client.New(device.IP, device.Port)
	conn, err := c.Connection()
	if err != nil {
		printRow("Uplink", fmt.Sprintf("unavailable (%v)", err))
		return
	}
	if !conn.Connected {
		printRow("Uplink", "not connected")
		return
	}
	printRow("Uplink", fmt.Sprintf("%s (%d dBm)", conn.SSID, conn.RSSI))
}

func printRow(key, value string) {
	if value == "" {
		return
	}
	fmt.Printf("   %s %s\n", keyStyle.Render(key), valueStyle.Render(value))
}
