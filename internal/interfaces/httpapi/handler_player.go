package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/match-ledger/internal/domain/identity"
	"github.com/riskibarqy/match-ledger/internal/usecase"
)

type updatePlayerRequest struct {
	DisplayName    *string `json:"displayName" validate:"omitempty,min=1,max=100"`
	DefaultVenueID *string `json:"defaultVenueId" validate:"omitempty,max=64"`
}

type createPlaceholderRequest struct {
	DisplayName string `json:"displayName" validate:"max=100"`
}

func (h *Handler) GetCurrentPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentPlayer")
	defer span.End()

	me, err := h.profileService.CurrentPlayer(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolve current player failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(me))
}

func (h *Handler) UpdateCurrentPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateCurrentPlayer")
	defer span.End()

	var req updatePlayerRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	me, err := h.profileService.CurrentPlayer(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolve current player failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	updated, err := h.profileService.UpdateProfile(ctx, usecase.UpdateProfileInput{
		ProfileID:      me.ID,
		DisplayName:    req.DisplayName,
		DefaultVenueID: req.DefaultVenueID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update current player failed", "profile_id", me.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(updated))
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	items, err := h.profileService.ListProfiles(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list players failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profilesToDTO(items))
}

func (h *Handler) CreatePlaceholder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreatePlaceholder")
	defer span.End()

	var req createPlaceholderRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	guest, err := h.profileService.CreatePlaceholder(ctx, req.DisplayName)
	if err != nil {
		h.logger.WarnContext(ctx, "create placeholder failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, profileToDTO(guest))
}

// ResolveIdentity takes the decoded scan payload verbatim as the body.
func (h *Handler) ResolveIdentity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveIdentity")
	defer span.End()

	raw, err := readRawBody(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	payload, err := identity.Parse(raw)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resolved, err := h.profileService.ResolveFromIdentityPayload(ctx, payload)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve identity failed", "profile_id", payload.ProfileID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(resolved))
}

func (h *Handler) ClaimPlaceholder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClaimPlaceholder", pathAttrs(r)...)
	defer span.End()

	placeholderID := strings.TrimSpace(r.PathValue("profileID"))
	raw, err := readRawBody(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	scanned, err := identity.Parse(raw)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.claimService.ClaimPlaceholder(ctx, placeholderID, scanned)
	if err != nil {
		h.logger.WarnContext(ctx, "claim placeholder failed",
			"placeholder_id", placeholderID,
			"scanned_profile_id", scanned.ProfileID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, claimResultDTO{
		Profile:       profileToDTO(result.Profile),
		MatchesSynced: result.MatchesSynced,
	})
}
