package handlers

import (
	"net/http"

	"github.com/boulodrome/tournament-engine/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type activateRequest struct {
	TeamID  int                        `json:"team_id"`
	PIN     string                     `json:"pin"`
	Players []services.PlayerSelection `json:"players"`
}

// Activate handles POST /matches/{matchID}/activate.
func (h *MatchHandler) Activate(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req activateRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.Activate(r.Context(), services.ActivationInput{
		MatchID: matchID,
		TeamID:  req.TeamID,
		PIN:     req.PIN,
		Players: req.Players,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type submitResultRequest struct {
	TeamID     int     `json:"team_id"`
	PIN        string  `json:"pin"`
	Team1Score int     `json:"team1_score"`
	Team2Score int     `json:"team2_score"`
	Notes      *string `json:"notes,omitempty"`
}

// SubmitResult handles POST /matches/{matchID}/result.
func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req submitResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SubmitResult(r.Context(), services.ResultInput{
		MatchID:    matchID,
		TeamID:     req.TeamID,
		PIN:        req.PIN,
		Team1Score: req.Team1Score,
		Team2Score: req.Team2Score,
		Notes:      req.Notes,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type validateResultRequest struct {
	TeamID int    `json:"team_id"`
	PIN    string `json:"pin"`
	Agree  bool   `json:"agree"`
}

// ValidateResult handles POST /matches/{matchID}/validate.
func (h *MatchHandler) ValidateResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req validateResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ValidateResult(r.Context(), matchID, req.TeamID, req.PIN, req.Agree)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AttachEvidence handles POST /matches/{matchID}/evidence. The request
// is multipart: a "photo" file part plus team_id and pin form fields.
func (h *MatchHandler) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := formInt(r, "team_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	pin := r.FormValue("pin")

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	result, err := h.matchService.AttachResultEvidence(
		r.Context(), matchID, teamID, pin,
		header.Header.Get("Content-Type"), file,
	)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get handles GET /matches/{matchID}.
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	detail, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, detail, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// NextForTeam handles GET /teams/{teamID}/next-match.
func (h *MatchHandler) NextForTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.NextMatchForTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
