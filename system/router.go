package system

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
)

// Handler builds the site. Middleware runs in this order: request id,
// security headers, panic recovery, hit counter, greylist, https redirect
// (production only), CORS, rate limit, then routing.
func (s *System) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.SecurityHeaders)
	router.Use(middleware.Recoverer)
	router.Use(s.HitCounter)
	router.Use(s.greylist.Protect)
	if s.env.Production() {
		router.Use(ForceHTTPS)
	}
	router.Use(s.CORS())
	router.Use(s.RateLimiter())

	CSRF := csrf.Protect([]byte(s.config.Sec.CSRFKey),
		csrf.Secure(!s.meta().DevelopmentMode), // is dev mode
		csrf.Path("/"),
		csrf.FieldName("_csrf"),
		csrf.CookieName(s.config.Sec.CookieName+"_csrf"))

	// templated
	router.Method(http.MethodGet, "/", CSRF(http.HandlerFunc(s.HomeHandler)))
	router.Method(http.MethodHead, "/", CSRF(http.HandlerFunc(s.HomeHandler)))

	// forms
	router.Method(http.MethodPost, "/contact", CSRF(http.HandlerFunc(s.ContactFormHandler)))

	// json
	router.Post("/api/contact", s.ContactHandler)
	router.Get("/api/users/{id}", s.UserHandler)
	router.Get("/status", s.StatusHandler)

	// static files
	router.Get("/css/*", s.StaticHandler)
	router.Get("/robots.txt", s.StaticHandler)

	return router
}
