package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/match-ledger/internal/usecase"
)

type signInRequest struct {
	// AccountID is only used when the daemon runs without a token verifier.
	AccountID string `json:"accountId" validate:"max=128"`
}

type updateReferencesRequest struct {
	OldProfileID string `json:"oldProfileId" validate:"required,max=64"`
	NewProfileID string `json:"newProfileId" validate:"required,max=64,nefield=OldProfileID"`
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSession")
	defer span.End()

	accountID := h.sessionService.AccountID()
	writeSuccess(ctx, w, http.StatusOK, sessionDTO{SignedIn: accountID != "", AccountID: accountID})
}

// SignIn reads the access token from the Authorization header and runs a full
// sync. The sync report comes back even when the sync stopped early.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SignIn")
	defer span.End()

	token, err := bearerToken(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req signInRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.sessionService.SignIn(ctx, usecase.SignInInput{AccessToken: token, AccountID: req.AccountID})
	if err != nil {
		h.logger.WarnContext(ctx, "sign in failed", "account_id", result.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	report := result.Sync
	writeSuccess(ctx, w, http.StatusOK, sessionDTO{SignedIn: true, AccountID: result.AccountID, Sync: &report})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SignOut")
	defer span.End()

	h.sessionService.SignOut(ctx)
	writeNoContent(w)
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Sync")
	defer span.End()

	report, err := h.sessionService.Sync(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "sync failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) UpdateMatchReferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMatchReferences")
	defer span.End()

	var req updateReferencesRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.claimService.UpdateMatchReferences(ctx, req.OldProfileID, req.NewProfileID)
	if err != nil {
		h.logger.WarnContext(ctx, "update match references failed",
			"old_profile_id", req.OldProfileID,
			"new_profile_id", req.NewProfileID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, referenceUpdateDTO{
		Matches:        result.Matches,
		MatchesSkipped: result.MatchesSkipped,
		DeviceLinks:    result.DeviceLinks,
		KnownUsers:     result.KnownUsers,
	})
}

// bearerToken returns "" when no Authorization header is present.
func bearerToken(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return "", nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: invalid Authorization header format", usecase.ErrUnauthorized)
	}
	return strings.TrimSpace(parts[1]), nil
}
