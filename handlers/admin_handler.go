package handlers

import (
	"net/http"

	"github.com/boulodrome/tournament-engine/services"
)

// AdminHandler exposes the operations reserved for organizers: match
// generation, progression control, and forced match cancellation.
type AdminHandler struct {
	matchService       services.MatchService
	progressionService services.ProgressionService
}

func NewAdminHandler(matchService services.MatchService, progressionService services.ProgressionService) *AdminHandler {
	return &AdminHandler{
		matchService:       matchService,
		progressionService: progressionService,
	}
}

// GenerateMatches handles POST /admin/tournaments/{tournamentID}/generate.
func (h *AdminHandler) GenerateMatches(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	created, err := h.progressionService.GenerateInitialMatches(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches_created": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Advance handles POST /admin/tournaments/{tournamentID}/advance. It
// triggers the same progression step that runs after every completed
// match, useful when the automation was reset.
func (h *AdminHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.progressionService.Advance(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetAutomation handles POST /admin/tournaments/{tournamentID}/automation/reset.
func (h *AdminHandler) ResetAutomation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.progressionService.ResetAutomation(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AssignCourts handles POST /admin/tournaments/{tournamentID}/assign-courts,
// a manual trigger of the waiting queue sweep.
func (h *AdminHandler) AssignCourts(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	assigned, err := h.matchService.AssignWaitingCourts(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches_assigned": assigned}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelMatch handles POST /admin/matches/{matchID}/cancel.
func (h *AdminHandler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.Cancel(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
