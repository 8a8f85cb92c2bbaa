package system

import (
	"net/http"

	"github.com/crewjam/csp"

	"github.com/aerth/folio/config"
)

// contentSecurityPolicy is the one policy used for the header and the page
// meta tag.
func contentSecurityPolicy(meta config.MetaConfig) string {
	connect := []string{"'self'"}
	if origin := meta.APIOrigin; origin != "" {
		connect = append(connect, origin)
	}
	return csp.Header{
		DefaultSrc: []string{"'self'"},
		ScriptSrc:  []string{"'self'", "'unsafe-inline'"},
		StyleSrc:   []string{"'self'", "'unsafe-inline'"},
		ImgSrc:     []string{"'self'", "data:"},
		ConnectSrc: connect,
	}.String()
}

// policy returns the current Content-Security-Policy.
func (s *System) policy() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csp
}

// SecurityHeaders sets the fixed security headers on every response, along
// with the one allowed CORS origin. Preflights are answered by CORS.
func (s *System) SecurityHeaders(h http.Handler) http.Handler {
	origin := s.config.Sec.CORSOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Content-Security-Policy", s.policy())
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "DENY")
		hdr.Set("Access-Control-Allow-Origin", origin)
		hdr.Set("Vary", "Origin")
		h.ServeHTTP(w, r)
	})
}

// ForceHTTPS answers 301 with the https url unless a proxy says the request
// already came in over https.
func ForceHTTPS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") != "https" {
			http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusMovedPermanently)
			return
		}
		h.ServeHTTP(w, r)
	})
}
