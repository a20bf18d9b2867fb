package main

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lovihome/lovid/internal/credentials"
	"github.com/lovihome/lovid/internal/device"
	"github.com/lovihome/lovid/internal/indicator"
	"github.com/lovihome/lovid/internal/logging"
	"github.com/lovihome/lovid/internal/portal"
	"github.com/lovihome/lovid/internal/provisioner"
	"github.com/lovihome/lovid/internal/radio"
	"github.com/lovihome/lovid/internal/version"
)

// Serve command flags
var (
	listenAddr   string
	wifiIface    string
	apSSID       string
	apPassphrase string
	apChannel    int
	apAddr       string
	dnsPort      int
	stateDir     string
	deviceName   string
	deviceKind   string
	ledName      string
	logLevel     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the provisioning daemon",
	Long: `Run the Lovi device daemon.

With stored Wi-Fi credentials the device joins the configured network and
operates normally. Without credentials, or when the join times out, the
device raises a local access point at a fixed address, redirects every DNS
query to itself, and serves the captive portal so credentials can be
entered from a phone or laptop.

Without --interface the daemon runs against a simulated radio, which is
useful for developing the control plane on a workstation.`,
	Example: `  # Run on real hardware
  lovid serve --interface wlan0 --led lovi:status

  # Run with a simulated radio on unprivileged ports
  lovid serve --listen :8080 --dns-port 5353

  # Custom access point identity
  lovid serve --interface wlan0 --ap-ssid "Lovi-Setup" --ap-channel 6`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":80", "Control-plane HTTP listen address")
	serveCmd.Flags().StringVar(&wifiIface, "interface", "", "Wi-Fi interface name (empty = simulated radio)")
	serveCmd.Flags().StringVar(&apSSID, "ap-ssid", "", "Provisioning AP network name (default derived from MAC)")
	serveCmd.Flags().StringVar(&apPassphrase, "ap-pass", "", "Provisioning AP passphrase (empty = open network)")
	serveCmd.Flags().IntVar(&apChannel, "ap-channel", 1, "Provisioning AP channel")
	serveCmd.Flags().StringVar(&apAddr, "ap-addr", radio.DefaultAPAddr.String(), "Fixed portal address for the AP")
	serveCmd.Flags().IntVar(&dnsPort, "dns-port", 53, "DNS redirector UDP port")
	serveCmd.Flags().StringVar(&stateDir, "state-dir", "/var/lib/lovid", "Directory for persisted credentials")
	serveCmd.Flags().StringVar(&deviceName, "name", "Lovi Device", "Device display name (also the mDNS hostname, lowercased)")
	serveCmd.Flags().StringVar(&deviceKind, "device", "presence", "Device adapter (presence, none)")
	serveCmd.Flags().StringVar(&ledName, "led", "", "sysfs LED name for the status indicator (empty = virtual)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	portalAddr, err := netip.ParseAddr(apAddr)
	if err != nil {
		return fmt.Errorf("invalid --ap-addr: %w", err)
	}

	rdo, err := buildRadio()
	if err != nil {
		return err
	}

	store, err := credentials.NewFileStore(stateDir)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	ind, err := buildIndicator()
	if err != nil {
		return err
	}

	adapter, err := buildAdapter(rdo.MAC())
	if err != nil {
		return err
	}

	if apSSID == "" {
		apSSID = defaultAPSSID(rdo.MAC())
	}

	prov := provisioner.New(provisioner.Config{
		APSSID:       apSSID,
		APPassphrase: apPassphrase,
		APChannel:    apChannel,
		APAddr:       portalAddr,
		DNSPort:      dnsPort,
		PortalPort:   portFromAddr(listenAddr),
		DeviceName:   deviceName,
	}, rdo, store, adapter, ind)

	srv := portal.New(portal.Config{ListenAddr: listenAddr}, portal.Deps{
		Adapter:   adapter,
		Indicator: ind,
		Store:     store,
		Radio:     rdo,
		Status:    prov.Status,
		Requests:  prov.Requests(),
		Restart: func() {
			logging.Info("restart requested, exiting for the service manager to relaunch")
			logging.Sync()
			os.Exit(0)
		},
	})
	prov.SetPublisher(srv.Publish)

	logging.Info("starting lovid",
		zap.String("version", version.Full()),
		zap.String("listen", listenAddr),
		zap.String("mac", rdo.MAC()),
	)

	if err := srv.Start(); err != nil {
		return err
	}
	if err := prov.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logging.Info("shutting down")
	prov.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("control-plane shutdown incomplete", zap.Error(err))
	}
	return nil
}

func buildRadio() (radio.Radio, error) {
	if wifiIface == "" {
		logging.Warn("no --interface given, using simulated radio")
		return radio.NewSim(), nil
	}
	rdo, err := radio.NewIWD(wifiIface)
	if err != nil {
		return nil, fmt.Errorf("failed to open Wi-Fi interface %s: %w", wifiIface, err)
	}
	return rdo, nil
}

func buildIndicator() (indicator.Indicator, error) {
	if ledName == "" {
		return indicator.NewVirtual(), nil
	}
	led, err := indicator.NewSysfsLED(ledName)
	if err != nil {
		return nil, fmt.Errorf("failed to open LED %s: %w", ledName, err)
	}
	return led, nil
}

func buildAdapter(mac string) (device.Adapter, error) {
	switch deviceKind {
	case "presence":
		return device.NewPresence(deviceName, deviceID(mac), version.Version), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown device adapter %q (want presence or none)", deviceKind)
	}
}

// deviceID derives a stable identifier from the radio MAC, e.g.
// "lovi-748637" for C4:BE:84:74:86:37.
func deviceID(mac string) string {
	hex := strings.ToLower(strings.ReplaceAll(mac, ":", ""))
	if len(hex) > 6 {
		hex = hex[len(hex)-6:]
	}
	return "lovi-" + hex
}

// defaultAPSSID names the provisioning network after the MAC tail so
// neighboring unprovisioned devices stay distinguishable.
func defaultAPSSID(mac string) string {
	hex := strings.ToUpper(strings.ReplaceAll(mac, ":", ""))
	if len(hex) > 4 {
		hex = hex[len(hex)-4:]
	}
	return "Lovi-" + hex
}

// portFromAddr extracts the port from a listen address, defaulting to 80.
func portFromAddr(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		return 80
	}
	return port
}
