//go:build windows

package probe

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// netshWifiReader parses `netsh wlan show interfaces`.
type netshWifiReader struct {
	logger *zap.Logger
}

func newWifiReader(logger *zap.Logger) wifiReader {
	return &netshWifiReader{logger: logger}
}

func (r *netshWifiReader) Link(ctx context.Context, name string) (wifiLink, bool, error) {
	out, err := exec.CommandContext(ctx, "netsh", "wlan", "show", "interfaces").Output()
	if err != nil {
		return wifiLink{}, false, fmt.Errorf("netsh wlan: %w", err)
	}
	return parseNetshInterfaces(string(out), name)
}
