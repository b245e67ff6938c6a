package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/HerbHall/netwatch/pkg/models"
	"github.com/pion/stun/v3"
	"go.uber.org/zap"
)

// IPAddresses reports the LAN address used for the default route and the
// public address observed by a STUN server. Either may be empty; the call
// fails only when neither could be determined.
func (s *System) IPAddresses(ctx context.Context) (models.IPAddresses, error) {
	var out models.IPAddresses

	internal, intErr := outboundIP(ctx, s.cfg.RouteProbeAddr)
	if intErr == nil {
		out.InternalIP = internal
	} else {
		s.logger.Debug("internal address unavailable", zap.Error(intErr))
	}

	external, extErr := publicIP(ctx, s.cfg.STUNServers, s.cfg.STUNTimeout)
	if extErr == nil {
		out.ExternalIP = external
	} else {
		s.logger.Debug("external address unavailable", zap.Error(extErr))
	}

	if intErr != nil && extErr != nil {
		return out, unavailable("ip addresses", errors.Join(intErr, extErr))
	}
	return out, nil
}

// outboundIP returns the local address the kernel would use to reach addr.
// UDP "dial" sends no packets.
func outboundIP(ctx context.Context, addr string) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return "", fmt.Errorf("route probe %s: %w", addr, err)
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || local.IP == nil {
		return "", fmt.Errorf("route probe %s: no local address", addr)
	}
	return local.IP.String(), nil
}

// publicIP asks each STUN server in turn for our mapped address and returns
// the first answer.
func publicIP(ctx context.Context, servers []string, timeout time.Duration) (string, error) {
	if len(servers) == 0 {
		return "", errors.New("no STUN servers configured")
	}

	var lastErr error
	for _, server := range servers {
		addr, err := stunMappedAddress(ctx, server, timeout)
		if err == nil {
			return addr, nil
		}
		lastErr = fmt.Errorf("stun %s: %w", server, err)
	}
	return "", lastErr
}

func stunMappedAddress(ctx context.Context, server string, timeout time.Duration) (string, error) {
	uriStr := strings.TrimSpace(server)
	if !strings.HasPrefix(uriStr, "stun:") {
		uriStr = "stun:" + uriStr
	}
	uri, err := stun.ParseURI(uriStr)
	if err != nil {
		return "", err
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return "", err
	}
	defer client.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result := make(chan string, 1)
	fail := make(chan error, 2)
	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	go func() {
		err := client.Do(msg, func(res stun.Event) {
			if res.Error != nil {
				fail <- res.Error
				return
			}
			var xorAddr stun.XORMappedAddress
			if err := xorAddr.GetFrom(res.Message); err != nil {
				fail <- err
				return
			}
			result <- xorAddr.IP.String()
		})
		if err != nil {
			fail <- err
		}
	}()

	select {
	case ip := <-result:
		return ip, nil
	case err := <-fail:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
