package probe

import (
	"strconv"
	"strings"
)

// parseNetshInterfaces extracts the SSID and signal of the named interface
// from `netsh wlan show interfaces` output. Blocks are separated by "Name"
// lines; signal is reported as a quality percentage.
func parseNetshInterfaces(out, iface string) (wifiLink, bool, error) {
	var (
		link    wifiLink
		current string
		found   bool
	)
	for _, raw := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Name":
			current = value
			if current == iface {
				found = true
			}
		case "SSID":
			if current == iface {
				link.SSID = value
			}
		case "Signal":
			if current == iface {
				pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
				if err == nil {
					link.SignalDBm = qualityToDBm(pct)
				}
			}
		}
	}
	return link, found, nil
}
