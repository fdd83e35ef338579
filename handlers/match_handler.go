package handlers

import (
	"net/http"
	"time"

	"github.com/kfupm-ics/soccer-tournament/models"
	"github.com/kfupm-ics/soccer-tournament/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type scheduledMatchInput struct {
	MatchNo  int              `json:"match_no"`
	PlayDate time.Time        `json:"play_date"`
	Stage    models.PlayStage `json:"play_stage"`
	VenueID  int              `json:"venue_id"`
	TeamID1  int              `json:"team_id1"`
	TeamID2  int              `json:"team_id2"`
}

type playedMatchInput struct {
	MatchNo       int                `json:"match_no"`
	Stage         models.PlayStage   `json:"play_stage"`
	PlayDate      time.Time          `json:"play_date"`
	TeamID1       int                `json:"team_id1"`
	TeamID2       int                `json:"team_id2"`
	Results       models.MatchResult `json:"results"`
	DecidedBy     models.DecidedBy   `json:"decided_by"`
	GoalScore     string             `json:"goal_score"`
	VenueID       int                `json:"venue_id"`
	Audience      int                `json:"audience"`
	PlayerOfMatch int                `json:"player_of_match"`
	Stop1Sec      *int               `json:"stop1_sec,omitempty"`
	Stop2Sec      *int               `json:"stop2_sec,omitempty"`
}

func (in *playedMatchInput) toModel(trID int) *models.PlayedMatch {
	return &models.PlayedMatch{
		MatchNo:       in.MatchNo,
		TrID:          trID,
		Stage:         in.Stage,
		PlayDate:      in.PlayDate,
		TeamID1:       in.TeamID1,
		TeamID2:       in.TeamID2,
		Results:       in.Results,
		DecidedBy:     in.DecidedBy,
		GoalScore:     in.GoalScore,
		VenueID:       in.VenueID,
		Audience:      in.Audience,
		PlayerOfMatch: in.PlayerOfMatch,
		Stop1Sec:      in.Stop1Sec,
		Stop2Sec:      in.Stop2Sec,
	}
}

// TransitionToPlayed finalizes a fixture: POST /admin/tournaments/{trID}/next-matches/{matchNo}/play
func (h *MatchHandler) TransitionToPlayed(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchNo, err := getIDFromURL(r, "matchNo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var outcome models.Outcome
	if err := readJSON(w, r, &outcome); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	played, err := h.matchService.TransitionToPlayed(r.Context(), trID, matchNo, &outcome)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": played}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) CreateScheduledMatch(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input scheduledMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match := &models.ScheduledMatch{
		MatchNo:  input.MatchNo,
		TrID:     trID,
		PlayDate: input.PlayDate,
		Stage:    input.Stage,
		VenueID:  input.VenueID,
		TeamID1:  input.TeamID1,
		TeamID2:  input.TeamID2,
	}
	created, err := h.matchService.CreateScheduledMatch(r.Context(), match)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateScheduledMatch(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchNo, err := getIDFromURL(r, "matchNo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input scheduledMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match := &models.ScheduledMatch{
		MatchNo:  matchNo,
		TrID:     trID,
		PlayDate: input.PlayDate,
		Stage:    input.Stage,
		VenueID:  input.VenueID,
		TeamID1:  input.TeamID1,
		TeamID2:  input.TeamID2,
	}
	updated, err := h.matchService.UpdateScheduledMatch(r.Context(), match)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeleteScheduledMatch(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchNo, err := getIDFromURL(r, "matchNo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deleted, err := h.matchService.DeleteScheduledMatch(r.Context(), trID, matchNo)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": deleted}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListScheduledMatches(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListScheduledMatches(r.Context(), trID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"next_matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) CreatePlayedMatch(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input playedMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.matchService.CreatePlayedMatch(r.Context(), input.toModel(trID))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdatePlayedMatch(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchNo, err := getIDFromURL(r, "matchNo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input playedMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match := input.toModel(trID)
	match.MatchNo = matchNo
	updated, err := h.matchService.UpdatePlayedMatch(r.Context(), match)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeletePlayedMatch(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchNo, err := getIDFromURL(r, "matchNo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deleted, err := h.matchService.DeletePlayedMatch(r.Context(), trID, matchNo)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": deleted}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListPlayedMatches(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListPlayedMatches(r.Context(), trID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetPlayedMatch(w http.ResponseWriter, r *http.Request) {
	trID, err := getIDFromURL(r, "trID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchNo, err := getIDFromURL(r, "matchNo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, details, err := h.matchService.GetPlayedMatch(r.Context(), trID, matchNo)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match, "details": details}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
