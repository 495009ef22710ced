package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"quadra/internal/core"
)

type gameDTO struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Location  string    `json:"location"`
	MyStatus  string    `json:"my_status"`
	Confirmed int       `json:"confirmed_count"`
	Declined  int       `json:"declined_count"`
}

func toGameDTO(g core.Game, viewerID string) gameDTO {
	dto := gameDTO{
		ID:       g.ID,
		Date:     g.Date,
		Location: g.Location,
		MyStatus: string(g.StatusFor(viewerID)),
	}
	for _, status := range g.Attendance {
		switch status {
		case core.StatusConfirmed:
			dto.Confirmed++
		case core.StatusDeclined:
			dto.Declined++
		}
	}
	return dto
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	actor := memberFrom(r)

	games, err := s.games.Upcoming(r.Context(), actor, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]gameDTO, len(games))
	for i, g := range games {
		out[i] = toGameDTO(g, actor.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": out})
}

type attendanceRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	actor := memberFrom(r)
	gameID := chi.URLParam(r, "id")
	if err := s.games.SetStatus(r.Context(), actor, gameID, core.RSVPStatus(req.Status)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"game_id": gameID,
		"status":  req.Status,
	})
}

type attendeesResponse struct {
	Confirmed []memberDTO `json:"confirmed"`
	Declined  []memberDTO `json:"declined"`
	Pending   []memberDTO `json:"pending"`
}

func (s *Server) handleAttendees(w http.ResponseWriter, r *http.Request) {
	groups, err := s.games.Attendees(r.Context(), memberFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendeesResponse{
		Confirmed: toMemberDTOs(groups.Confirmed),
		Declined:  toMemberDTOs(groups.Declined),
		Pending:   toMemberDTOs(groups.Pending),
	})
}
