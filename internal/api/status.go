package api

import (
	"net"
	"net/http"
	"strings"
)

// loopbackAddresses are connection addresses that indicate the request
// reached us through a local reverse proxy.
var loopbackAddresses = map[string]struct{}{
	"127.0.0.1":       {},
	"::1":             {},
	"0:0:0:0:0:0:0:1": {},
}

// handleStatus returns the server status and version.
//
// GET /v1/status
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleMyIP echoes the client's IP address back to it. Devices use this
// to tell each other where they are reachable.
//
// GET /v1/myip
func (s *Server) handleMyIP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"ip": clientIP(r)})
}

// clientIP determines the caller's address. When the connection comes
// from loopback the request was relayed by a local reverse proxy, so the
// first X-Forwarded-For hop is trusted instead.
func clientIP(r *http.Request) string {
	connectionIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(connectionIP); err == nil {
		connectionIP = host
	}

	if _, loopback := loopbackAddresses[connectionIP]; !loopback {
		return connectionIP
	}

	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return connectionIP
	}
	first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
	if net.ParseIP(first) == nil {
		return connectionIP
	}
	return first
}
