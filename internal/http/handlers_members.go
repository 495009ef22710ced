package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := s.members.Roster(r.Context(), memberFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": toMemberDTOs(roster)})
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.members.PromoteToAdmin(r.Context(), memberFrom(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"member_id": id, "role": "admin"})
}
