package middleware

import (
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the caller's address: the first valid X-Forwarded-For
// entry, else the host part of RemoteAddr. Unparseable RemoteAddr values are
// returned as is so they still work as rate limit keys.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			if addr, err := netip.ParseAddr(strings.TrimSpace(part)); err == nil {
				return addr.Unmap().String()
			}
		}
	}
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}
	if addr, err := netip.ParseAddr(r.RemoteAddr); err == nil {
		return addr.Unmap().String()
	}
	return r.RemoteAddr
}
