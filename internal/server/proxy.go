// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// parseTrustedProxies parses CIDR strings into networks, skipping blank
// entries.
func parseTrustedProxies(cidrs []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, curioerr.Errorf(curioerr.CodeServerConfigInvalid,
				"invalid trusted proxy CIDR %q: %w", cidr, err)
		}
		nets = append(nets, ipNet)
	}
	if len(nets) == 0 {
		return nil, curioerr.New(curioerr.CodeServerConfigInvalid,
			"trusted_proxies must contain at least one valid CIDR range")
	}
	return nets, nil
}

func isTrustedProxy(ip net.IP, trusted []*net.IPNet) bool {
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// trustedProxyRealIP rewrites r.RemoteAddr from X-Forwarded-For (or
// X-Real-IP) only when the direct peer is a trusted proxy. Forwarded
// headers from anyone else are ignored, otherwise a client could spoof
// its IP and sidestep the per-IP rate limiter.
func trustedProxyRealIP(trusted []*net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				peer = r.RemoteAddr
			}

			ip := net.ParseIP(peer)
			if ip == nil {
				slog.Warn("could not parse connecting IP, ignoring proxy headers", "remote_addr", r.RemoteAddr)
				next.ServeHTTP(w, r)
				return
			}
			if !isTrustedProxy(ip, trusted) {
				next.ServeHTTP(w, r)
				return
			}

			// The leftmost X-Forwarded-For entry is the original client.
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				client := strings.TrimSpace(strings.Split(xff, ",")[0])
				if net.ParseIP(client) != nil {
					r.RemoteAddr = client + ":0"
				} else {
					slog.Warn("invalid IP in X-Forwarded-For, keeping connecting IP",
						"xff", client, "connecting_ip", peer)
				}
			} else if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
				if net.ParseIP(xri) != nil {
					r.RemoteAddr = xri + ":0"
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
