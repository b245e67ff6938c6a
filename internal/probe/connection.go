package probe

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/HerbHall/netwatch/pkg/models"
	psnet "github.com/shirou/gopsutil/v4/net"
	"go.uber.org/zap"
)

const (
	ConnectionEthernet = "Ethernet"
	ConnectionWifi     = "Wi-Fi"
)

// wifiLink is the association state of a wireless interface.
type wifiLink struct {
	SSID      string
	SignalDBm int
}

// wifiReader looks up the current association of a named interface.
// ok is false when the interface is not wireless.
type wifiReader interface {
	Link(ctx context.Context, iface string) (link wifiLink, ok bool, err error)
}

// ConnectionInfo identifies the interface carrying the default route and,
// for wireless links, the SSID and signal strength.
func (s *System) ConnectionInfo(ctx context.Context) (models.ConnectionInfo, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return models.ConnectionInfo{}, unavailable("interfaces", err)
	}

	routeIP, _ := outboundIP(ctx, s.cfg.RouteProbeAddr)
	active, ok := activeInterface(ifaces, routeIP)
	if !ok {
		return models.ConnectionInfo{}, unavailable("interfaces", errors.New("no active interface"))
	}

	info := models.ConnectionInfo{ConnectionType: classifyInterface(active.Name)}

	link, wireless, err := s.wifi.Link(ctx, active.Name)
	if err != nil {
		s.logger.Debug("wifi details unavailable", zap.String("iface", active.Name), zap.Error(err))
	}
	if wireless {
		info.ConnectionType = ConnectionWifi
		info.WifiSSID = link.SSID
		if link.SignalDBm != 0 {
			info.SignalStrength = formatDBm(link.SignalDBm)
		}
	}
	return info, nil
}

// activeInterface prefers the interface that owns routeIP, falling back to
// the first interface that is up and not loopback.
func activeInterface(ifaces psnet.InterfaceStatList, routeIP string) (psnet.InterfaceStat, bool) {
	if routeIP != "" {
		for _, ifc := range ifaces {
			for _, a := range ifc.Addrs {
				if addrIP(a.Addr) == routeIP {
					return ifc, true
				}
			}
		}
	}
	for _, ifc := range ifaces {
		if slices.Contains(ifc.Flags, "up") && !slices.Contains(ifc.Flags, "loopback") {
			return ifc, true
		}
	}
	return psnet.InterfaceStat{}, false
}

// addrIP strips a CIDR suffix: gopsutil reports "192.168.1.20/24".
func addrIP(addr string) string {
	if p, err := netip.ParsePrefix(addr); err == nil {
		return p.Addr().String()
	}
	return addr
}

// classifyInterface guesses the link type from the interface name.
func classifyInterface(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "wl"),
		strings.Contains(lower, "wi-fi"),
		strings.Contains(lower, "wifi"),
		strings.Contains(lower, "wireless"),
		strings.Contains(lower, "wlan"):
		return ConnectionWifi
	default:
		return ConnectionEthernet
	}
}

// qualityToDBm converts a 0-100 signal quality percentage to approximate dBm
// using quality = 2 * (dBm + 100), clamped to [-100, -50].
func qualityToDBm(quality int) int {
	if quality <= 0 {
		return -100
	}
	if quality >= 100 {
		return -50
	}
	return quality/2 - 100
}

func formatDBm(dbm int) string {
	return fmt.Sprintf("%d dBm", dbm)
}
