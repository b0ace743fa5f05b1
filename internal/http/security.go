package http

import (
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"
	"unicode"
)

const maxRequestURILength = 2048

type securityMetrics struct {
	rateLimitHits      atomic.Int64
	suspiciousRequests atomic.Int64
}

func (m *securityMetrics) snapshot() (rateLimitHits, suspicious int64) {
	return m.rateLimitHits.Load(), m.suspiciousRequests.Load()
}

// setSecurityHeaders applies the headers every response carries. The
// dashboard has no scripts and only inline styles.
func setSecurityHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

// proxyList holds the networks whose forwarding headers are believed.
type proxyList []netip.Prefix

func (p proxyList) trusts(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP resolves the address rate limits and logs are keyed on. Forwarded
// headers count only when the peer is a trusted proxy. X-Forwarded-For is
// read from the right so entries a client prepends are never reached while a
// trusted hop precedes them.
func (p proxyList) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !p.trusts(peer) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		client := peer
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			client = hop
			if !p.trusts(hop) {
				break
			}
		}
		return client.Unmap().String()
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}
	return host
}

// suspicionReason names what is wrong with a request aimed at one of this
// server's routes, or returns "" for an ordinary request. Flagged requests
// are still served; the handlers reject what they cannot parse.
func suspicionReason(r *http.Request) string {
	switch r.Method {
	case http.MethodTrace, http.MethodConnect:
		return "method"
	}
	if len(r.RequestURI) > maxRequestURILength || len(r.URL.RawQuery) > maxRequestURILength {
		return "uri_length"
	}

	path := r.URL.Path
	if !strings.HasPrefix(path, "/api/") && !strings.HasPrefix(path, "/export/") {
		return ""
	}
	if hasTraversal(r.URL) {
		return "path_traversal"
	}
	if strings.HasPrefix(path, "/api/transactions") && isMutating(r.Method) && r.ContentLength != 0 && !isJSON(r.Header.Get("Content-Type")) {
		return "content_type"
	}
	return ""
}

// hasTraversal reports paths that would escape or widen a path value such
// as {id} or {format}: dot segments, backslashes, control characters, and
// slashes or dots smuggled in percent encoded.
func hasTraversal(u *url.URL) bool {
	escaped := strings.ToLower(u.EscapedPath())
	for _, enc := range []string{"%2f", "%5c", "%2e"} {
		if strings.Contains(escaped, enc) {
			return true
		}
	}
	if strings.IndexFunc(u.Path, unicode.IsControl) >= 0 {
		return true
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == ".." || seg == "." || strings.ContainsRune(seg, '\\') {
			return true
		}
	}
	return false
}

func isJSON(contentType string) bool {
	media, _, err := mime.ParseMediaType(contentType)
	return err == nil && media == "application/json"
}
