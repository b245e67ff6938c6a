//go:build linux

package probe

import (
	"context"
	"fmt"

	"github.com/mdlayher/wifi"
	"go.uber.org/zap"
)

// nl80211WifiReader reads association state over nl80211.
type nl80211WifiReader struct {
	logger *zap.Logger
}

func newWifiReader(logger *zap.Logger) wifiReader {
	return &nl80211WifiReader{logger: logger}
}

func (r *nl80211WifiReader) Link(_ context.Context, name string) (wifiLink, bool, error) {
	c, err := wifi.New()
	if err != nil {
		// No nl80211 family: no wireless hardware or driver.
		return wifiLink{}, false, nil
	}
	defer c.Close()

	ifaces, err := c.Interfaces()
	if err != nil {
		return wifiLink{}, false, fmt.Errorf("enumerate wifi interfaces: %w", err)
	}

	var ifi *wifi.Interface
	for _, candidate := range ifaces {
		if candidate.Name == name && candidate.Type == wifi.InterfaceTypeStation {
			ifi = candidate
			break
		}
	}
	if ifi == nil {
		return wifiLink{}, false, nil
	}

	var link wifiLink
	if bss, err := c.BSS(ifi); err == nil {
		link.SSID = bss.SSID
	} else {
		r.logger.Debug("wifi BSS unavailable", zap.String("iface", name), zap.Error(err))
	}
	if stations, err := c.StationInfo(ifi); err == nil && len(stations) > 0 {
		link.SignalDBm = stations[0].Signal
	} else if err != nil {
		r.logger.Debug("wifi station info unavailable", zap.String("iface", name), zap.Error(err))
	}
	return link, true, nil
}
