package system

import (
	"log"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/aerth/folio/greylist"
)

const rateLimitedText = "Too many requests, please try again later."

// CORS allows the single configured origin.
func (s *System) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{s.config.Sec.CORSOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})
}

// RateLimiter limits each client IP to Security.rate-limit requests per
// Security.rate-window, sliding window. Every call returns a limiter with
// fresh counters.
func (s *System) RateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(
		s.config.Sec.RateLimit,
		s.config.Sec.RateWindow.Duration,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(s.rateLimited),
	)
}

func (s *System) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.Println("rate limited:", logr(r))
	s.addBadAttempt(r)
	http.Error(w, rateLimitedText, http.StatusTooManyRequests)
}

// addBadAttempt counts a rejection and hands the IP to the greylist once it
// reaches Security.ban-after. Bans are off unless ban-after is set.
func (s *System) addBadAttempt(r *http.Request) {
	limit := s.config.Sec.BanAfter
	if s.greylist == nil || limit <= 0 {
		return
	}
	ip := greylist.ClientIP(r)

	s.badguylock.Lock()
	s.badguys[ip]++
	banned := s.badguys[ip] >= uint32(limit)
	if banned {
		delete(s.badguys, ip)
	}
	s.badguylock.Unlock()

	if banned {
		log.Println("adding to blacklist:", ip)
		s.greylist.Blacklist(ip)
	}
}
