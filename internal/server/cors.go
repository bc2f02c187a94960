package server

import (
	"net/http"
	"slices"
)

// withCORS allows cross-origin calls from origins ("*" allows any)
func withCORS(origins []string, next http.Handler) http.Handler {
	wildcard := slices.Contains(origins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case origin == "":
		case wildcard:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+correlationHeader)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// originAllowed reports whether a websocket handshake from origin is accepted
func originAllowed(origins []string, origin string) bool {
	return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
}
