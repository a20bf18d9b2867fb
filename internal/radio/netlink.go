package radio

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/jsimonetti/rtnetlink"
	"golang.org/x/sys/unix"
)

// linkInfo queries the kernel for an interface's index and MAC address.
func linkInfo(ifname string) (index uint32, mac string, err error) {
	conn, err := rtnetlink.Dial(nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to dial rtnetlink: %w", err)
	}
	defer conn.Close()

	links, err := conn.Link.List()
	if err != nil {
		return 0, "", fmt.Errorf("failed to list links: %w", err)
	}

	for _, link := range links {
		if link.Attributes == nil || link.Attributes.Name != ifname {
			continue
		}
		return link.Index, net.HardwareAddr(link.Attributes.Address).String(), nil
	}
	return 0, "", fmt.Errorf("interface %q not found", ifname)
}

// linkAddr returns the first IPv4 address assigned to the interface, or the
// zero Addr when none is assigned yet (DHCP still in progress).
func linkAddr(index uint32) (netip.Addr, error) {
	conn, err := rtnetlink.Dial(nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to dial rtnetlink: %w", err)
	}
	defer conn.Close()

	addrs, err := conn.Address.List()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to list addresses: %w", err)
	}

	for _, addr := range addrs {
		if addr.Index != index || addr.Attributes == nil || addr.Attributes.Address == nil {
			continue
		}
		ip, ok := netip.AddrFromSlice(addr.Attributes.Address)
		if !ok || !ip.Is4() {
			continue
		}
		return ip, nil
	}
	return netip.Addr{}, nil
}

// assignAddr adds a static IPv4 address to the interface. Used to give the
// access point its fixed gateway address. Re-adding an existing address is
// tolerated.
func assignAddr(index uint32, ip netip.Addr, prefixLen uint8) error {
	conn, err := rtnetlink.Dial(nil)
	if err != nil {
		return fmt.Errorf("failed to dial rtnetlink: %w", err)
	}
	defer conn.Close()

	addr := ip.As4()
	err = conn.Address.New(&rtnetlink.AddressMessage{
		Family:       unix.AF_INET,
		PrefixLength: prefixLen,
		Index:        index,
		Attributes: &rtnetlink.AddressAttributes{
			Address: net.IP(addr[:]),
			Local:   net.IP(addr[:]),
		},
	})
	if err != nil && !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("failed to add address: %w", err)
	}
	return nil
}
