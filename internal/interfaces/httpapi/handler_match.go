package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/match-ledger/internal/usecase"
)

type createVenueRequest struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Address   string   `json:"address" validate:"max=255"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type createMatchRequest struct {
	Team1      []string   `json:"team1" validate:"required,min=1,max=2,dive,required"`
	Team2      []string   `json:"team2" validate:"required,min=1,max=2,dive,required"`
	ScoreTeam1 int        `json:"scoreTeam1" validate:"gte=0"`
	ScoreTeam2 int        `json:"scoreTeam2" validate:"gte=0"`
	VenueID    string     `json:"venueId" validate:"max=64"`
	PlayedAt   *time.Time `json:"playedAt"`
	// CreatedBy defaults to the device's current player.
	CreatedBy string `json:"createdBy"`
}

type updateScoreRequest struct {
	ScoreTeam1      int    `json:"scoreTeam1" validate:"gte=0"`
	ScoreTeam2      int    `json:"scoreTeam2" validate:"gte=0"`
	ExpectedVersion int64  `json:"expectedVersion" validate:"gte=0"`
	UpdatedBy       string `json:"updatedBy"`
}

type verifyMatchRequest struct {
	ProfileID string `json:"profileId"`
}

func (h *Handler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateVenue")
	defer span.End()

	var req createVenueRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	me, ok := h.currentPlayerID(ctx, w, "")
	if !ok {
		return
	}

	item, err := h.matchService.CreateVenue(ctx, usecase.CreateVenueInput{
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		CreatedBy: me,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create venue failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, venueToDTO(item))
}

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatch")
	defer span.End()

	var req createMatchRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	createdBy, ok := h.currentPlayerID(ctx, w, req.CreatedBy)
	if !ok {
		return
	}

	var playedAt time.Time
	if req.PlayedAt != nil {
		playedAt = *req.PlayedAt
	}
	created, err := h.matchService.CreateMatch(ctx, usecase.CreateMatchInput{
		CreatedBy:  createdBy,
		Team1:      req.Team1,
		Team2:      req.Team2,
		ScoreTeam1: req.ScoreTeam1,
		ScoreTeam2: req.ScoreTeam2,
		VenueID:    req.VenueID,
		PlayedAt:   playedAt,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "created_by", createdBy, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(created))
}

// ListMatches lists matches for ?profileId=, or for the current player.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	profileID, ok := h.currentPlayerID(ctx, w, r.URL.Query().Get("profileId"))
	if !ok {
		return
	}

	items, err := h.matchService.ListMatches(ctx, profileID)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "profile_id", profileID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(items))
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch", pathAttrs(r)...)
	defer span.End()

	matchID := r.PathValue("matchID")
	item, err := h.matchService.GetMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateScore", pathAttrs(r)...)
	defer span.End()

	matchID := r.PathValue("matchID")
	var req updateScoreRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	updatedBy, ok := h.currentPlayerID(ctx, w, req.UpdatedBy)
	if !ok {
		return
	}

	updated, err := h.matchService.UpdateScore(ctx, usecase.UpdateScoreInput{
		MatchID:         matchID,
		ScoreTeam1:      req.ScoreTeam1,
		ScoreTeam2:      req.ScoreTeam2,
		UpdatedBy:       updatedBy,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update score failed", "match_id", matchID, "updated_by", updatedBy, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(updated))
}

// VerifyMatch confirms the result for the team of profileId, which defaults to
// the current player. A second player on the same device passes their own id.
func (h *Handler) VerifyMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.VerifyMatch", pathAttrs(r)...)
	defer span.End()

	matchID := r.PathValue("matchID")
	var req verifyMatchRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}
	profileID, ok := h.currentPlayerID(ctx, w, req.ProfileID)
	if !ok {
		return
	}

	verified, err := h.matchService.VerifyForTeam(ctx, matchID, profileID)
	if err != nil {
		h.logger.WarnContext(ctx, "verify match failed", "match_id", matchID, "profile_id", profileID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(verified))
}

func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteMatch", pathAttrs(r)...)
	defer span.End()

	matchID := r.PathValue("matchID")
	requestedBy, ok := h.currentPlayerID(ctx, w, "")
	if !ok {
		return
	}

	if err := h.matchService.DeleteMatch(ctx, matchID, requestedBy); err != nil {
		h.logger.WarnContext(ctx, "delete match failed", "match_id", matchID, "requested_by", requestedBy, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeNoContent(w)
}

// currentPlayerID returns explicit when set, otherwise the device's bound
// profile. On failure the error response has already been written.
func (h *Handler) currentPlayerID(ctx context.Context, w http.ResponseWriter, explicit string) (string, bool) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, true
	}

	me, err := h.profileService.CurrentPlayer(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolve current player failed", "error", err)
		writeError(ctx, w, err)
		return "", false
	}
	return me.ID, true
}
