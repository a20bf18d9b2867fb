// Lovid-scan discovers Lovi devices on the local network.
//
// It browses for "_lovi._tcp" mDNS services and prints each provisioned
// device's name, address, and advertised metadata. This is a workstation
// utility; it does not run on the device itself.
//
// Usage:
//
//	lovid-scan [flags]
//
// See 'lovid-scan --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lovihome/lovid/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lovid-scan",
	Short: "Lovi Device Discovery Utility",
	Long: `Discover Lovi devices on the local network.

Listens for mDNS broadcasts from provisioned Lovi devices and displays
all discovered devices with their names, IP addresses, MAC addresses,
and advertised capabilities.`,
	Example: `  # Scan for 10 seconds (default)
  lovid-scan

  # Quick 3-second scan
  lovid-scan --timeout 3

  # Wait for a specific device to appear
  lovid-scan --mac C4:BE:84:74:86:37

  # JSON output for scripting
  lovid-scan --format json`,
	Version: version.Version,
	RunE:    runScan,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lovid-scan %s (commit: %s)\n", version.Version, version.Commit)
	},
}
