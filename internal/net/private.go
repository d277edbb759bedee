// Package net provides networking utilities for Fetcharr.
package net

import (
	"net"
	"net/url"
	"strings"

	"fetcharr/internal/utils/logging"
)

// lookupIP is swapped out in tests.
var lookupIP = net.LookupIP

// IsPrivateNetwork returns true if the host, host:port or URL is detected as a LAN or loopback address.
func IsPrivateNetwork(host string) bool {
	h := hostOnly(host)
	if h == "" {
		return false
	}
	if h == "localhost" {
		return true
	}

	if ip := net.ParseIP(h); ip != nil {
		return IsPrivateIP(ip)
	}
	return isPrivateNetworkFallback(h)
}

// IsPrivateIP reports whether ip is loopback, RFC 1918, unique local or link-local.
func IsPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

// isPrivateNetworkFallback resolves the hostname and checks if any address is private.
func isPrivateNetworkFallback(h string) bool {
	ips, err := lookupIP(h)
	if err != nil {
		logging.D(2, "Failed to resolve hostname %q: %v", h, err)
		return false
	}
	for _, ip := range ips {
		if IsPrivateIP(ip) {
			logging.D(2, "Host %q resolved to private IP address %q", h, ip)
			return true
		}
	}
	return false
}

// hostOnly strips scheme, port and brackets from the input.
func hostOnly(host string) string {
	host = strings.TrimSpace(host)
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil {
			return u.Hostname()
		}
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}
