package system

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
)

func (s *System) serveTemplate(w http.ResponseWriter, r *http.Request, tname string, data map[string]interface{}) {
	s.mu.RLock()
	t, ok := s.templates[tname]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	meta := s.meta()

	var pageTitle = meta.SiteName
	if pageTitle != "" {
		pageTitle += " | "
	}
	switch tname {
	case "index.html":
		pageTitle += "Home"
	}

	vars := map[string]interface{}{
		csrf.TemplateTag: csrf.TemplateField(r),
		"csrfToken":      csrf.Token(r),
		"csp":            s.policy(),
		"pageTitle":      pageTitle,
		"hits":           s.Stats.hits.Load(),
		"uptime":         time.Since(s.Stats.t1).Truncate(time.Second),
		"sitename":       meta.SiteName,
		"copyrightname":  meta.CopyrightName,
		"meta":           meta.TemplateData,
	}
	for k, v := range data {
		vars[k] = v
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, tname, vars); err != nil {
		log.Printf("error executing template %q: %v", tname, err)
	}
}

// HomeHandler renders the portfolio page with the contact form.
func (s *System) HomeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-CSRF-Token", csrf.Token(r))
	if r.Method == http.MethodHead {
		return
	}
	s.serveTemplate(w, r, "index.html", map[string]interface{}{
		"flash": s.popFlash(w, r),
	})
}

// StaticHandler serves files from the public tree.
func (s *System) StaticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Expires", time.Now().Add(time.Hour*24).UTC().Truncate(time.Second).Format(http.TimeFormat))
	name := strings.TrimPrefix(r.URL.Path, "/")
	http.ServeFileFS(w, r, s.public, name)
}

// HitCounter http middleware that logs and counts
func (s *System) HitCounter(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.meta().DevelopmentMode {
			log.Println(logr(r))
		}
		s.Stats.hits.Add(1)
		h.ServeHTTP(w, r)
	})
}
