// Lovid is the on-device provisioning and control-plane daemon for Lovi
// sensor devices.
//
// It establishes a Wi-Fi uplink from stored credentials, falls back to a
// captive-portal access point when no usable credentials exist or the
// connection fails, and serves a JSON control/status API once a network
// path exists. Provisioned devices advertise themselves over mDNS as
// "_lovi._tcp" services.
//
// Usage:
//
//	lovid serve [flags]
//
// See 'lovid serve --help' for available options.
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
	Use:   "lovid",
	Short: "Lovi Device Daemon",
	Long: `The on-device daemon for Lovi sensor devices.

Runs the Wi-Fi provisioning state machine, the captive portal with its
DNS redirector, the JSON control-plane API, and mDNS advertisement.

Note: For discovering provisioned devices from a workstation, use the
separate 'lovid-scan' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lovid %s (commit: %s)\n", version.Version, version.Commit)
	},
}
