package system

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/aerth/folio/contact"
	"github.com/aerth/folio/greylist"
)

// ContactReceived is the body of a successful contact submission.
const ContactReceived = "Message received!"

type contactRequest struct {
	Message json.RawMessage `json:"message"`
}

var errNotScalar = errors.New("message must be a string, number or boolean")

// text returns the message as a string. Numbers and booleans keep their json
// text ("42", "true"), null or a missing field is empty.
func (c contactRequest) text() (string, error) {
	raw := bytes.TrimSpace(c.Message)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case '{', '[':
		return "", errNotScalar
	}
	return string(raw), nil
}

type validationErrors struct {
	Errors []contact.ErrorDescriptor `json:"errors"`
}

// ContactHandler serves POST /api/contact.
func (s *System) ContactHandler(w http.ResponseWriter, r *http.Request) {
	var body contactRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		log.Printf("invalid contact body from %s: %v", greylist.ClientIP(r), err)
		serveJsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	text, err := body.text()
	if err != nil {
		log.Printf("invalid contact body from %s: %v", greylist.ClientIP(r), err)
		serveJsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	msg, errs := contact.Validate(text)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, validationErrors{errs})
		return
	}
	s.receive(r, msg)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, ContactReceived)
}

// receive processes an escaped message. Messages are logged, never stored.
func (s *System) receive(r *http.Request, msg contact.Message) {
	id := uuid.New()
	ip := greylist.ClientIP(r)
	log.Printf("contact %s from %s: %q", id, ip, msg.Content)
	s.auditlog("contact id=%s ip=%s referer=%q message=%q", id, ip, r.Referer(), msg.Content)
}
