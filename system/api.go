package system

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
)

const maxRequestBody = 1 << 20 // 1 MiB

type JSONError struct {
	Error string `json:"error"`
}

func serveJsonError(w http.ResponseWriter, e string, code int) {
	writeJSON(w, code, JSONError{e})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Println(err)
	}
}

func decodeJSON(r io.ReadCloser, target interface{}) error {
	defer r.Close()
	return json.NewDecoder(io.LimitReader(r, maxRequestBody)).Decode(target)
}

// ez http log
func logr(r *http.Request) string {
	ipaddr, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ipaddr = r.RemoteAddr
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ipaddr += " " + fwd
	}
	return fmt.Sprintf("%s %s %.50q %q %s", r.Host, r.Method, r.UserAgent(), ipaddr, r.URL.Path)
}
