package system

import (
	"log"
	"net/http"

	"github.com/aerth/folio/client"
	"github.com/aerth/folio/contact"
)

const emptyMessageFlash = "Please write a message before sending."

// ContactFormHandler serves the html form on the home page. The message gets
// the same tag strip the form client applies, then the same validation as
// the json endpoint.
func (s *System) ContactFormHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		log.Printf("error parsing form: %v", err)
		serveJsonError(w, "form parse error", http.StatusBadRequest)
		return
	}
	msg, errs := contact.Validate(client.Sanitize(r.FormValue("message")))
	if len(errs) > 0 {
		s.setFlash(w, emptyMessageFlash)
	} else {
		s.receive(r, msg)
		s.setFlash(w, ContactReceived)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *System) flashCookieName() string {
	return s.config.Sec.CookieName + "_flash"
}

func (s *System) setFlash(w http.ResponseWriter, text string) {
	name := s.flashCookieName()
	encoded, err := s.cookies.Encode(name, text)
	if err != nil {
		log.Println("error writing cookie:", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.meta().DevelopmentMode,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads the flash cookie and clears it.
func (s *System) popFlash(w http.ResponseWriter, r *http.Request) string {
	name := s.flashCookieName()
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
	var text string
	if err := s.cookies.Decode(name, cookie.Value, &text); err != nil {
		log.Println("error reading cookie from request:", err)
		return ""
	}
	return text
}
