package system

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aerth/folio/store"
)

// UserHandler serves GET /api/users/{id} with the matching rows.
func (s *System) UserHandler(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		serveJsonError(w, store.ErrNoStore.Error(), http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	users, err := s.users.GetUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		log.Println("error getting user:", err)
		serveJsonError(w, "user lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
