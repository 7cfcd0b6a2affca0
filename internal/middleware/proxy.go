package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"
)

// DefaultTrustedProxies are the ranges a reverse proxy in front of the app
// usually connects from: loopback, the Docker bridges and private LANs.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fd00::/8",
}

// TrustedProxies makes c.RealIP() resolve the client behind the given proxy
// ranges. The quick reservation limiter keys on it, so without trusted
// proxies every client behind one nginx would share a bucket.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	e.IPExtractor = buildIPExtractor(parsePrefixes(trustedCIDRs))
}

func parsePrefixes(cidrs []string) []netip.Prefix {
	var out []netip.Prefix
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		out = append(out, p.Masked())
	}
	return out
}

// buildIPExtractor trusts forwarding headers only from a trusted peer.
// X-Forwarded-For is walked from the right and the first hop that is not a
// trusted proxy wins; the leftmost entry is whatever the client sent.
func buildIPExtractor(trusted []netip.Prefix) echo.IPExtractor {
	return func(req *http.Request) string {
		direct := extractDirectIP(req.RemoteAddr)
		if !isTrusted(direct, trusted) {
			return direct
		}

		if xff := req.Header.Get(echo.HeaderXForwardedFor); xff != "" {
			hops := strings.Split(xff, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				hop := strings.TrimSpace(hops[i])
				if hop == "" {
					continue
				}
				if !isTrusted(hop, trusted) || i == 0 {
					return hop
				}
			}
		}
		if realIP := strings.TrimSpace(req.Header.Get(echo.HeaderXRealIP)); realIP != "" {
			return realIP
		}
		return direct
	}
}

// extractDirectIP strips the port from a RemoteAddr.
func extractDirectIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func isTrusted(ipStr string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ipStr)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
