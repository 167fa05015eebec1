package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/match-ledger/internal/domain/identity"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "match-ledger"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	ID         string           `json:"id,omitempty"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var internalError = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func envelope(ctx context.Context) googleResponseEnvelope {
	return googleResponseEnvelope{APIVersion: googleAPIVersion, ID: requestIDFrom(ctx)}
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	body := envelope(ctx)
	body.Data = data
	writeJSON(ctx, w, status, body)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps err onto the envelope. Unmapped errors never leak their
// text to the caller.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(err)
	if mapped == internalError {
		writeInternalError(ctx, w)
		return
	}
	writeMappedError(ctx, w, mapped, err.Error())
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeMappedError(ctx, w, internalError, "internal server error")
}

func writeMappedError(ctx context.Context, w http.ResponseWriter, mapped mappedError, msg string) {
	body := envelope(ctx)
	body.Error = &googleErrorBody{
		Code:    mapped.HTTPStatus,
		Message: msg,
		Status:  mapped.Status,
		Errors:  []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: msg}},
	}
	writeJSON(ctx, w, mapped.HTTPStatus, body)
}

// mapError checks the most specific sentinels first; several usecase errors
// wrap a domain one.
func mapError(err error) mappedError {
	switch {
	case errors.Is(err, match.ErrMatchAlreadyVerified):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "matchAlreadyVerified", Status: "FAILED_PRECONDITION"}
	case errors.Is(err, usecase.ErrMatchVersionConflict):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "versionConflict", Status: "ABORTED"}
	case errors.Is(err, usecase.ErrProfileConflict):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "profileConflict", Status: "ABORTED"}
	case errors.Is(err, usecase.ErrAlreadyClaimed):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "alreadyClaimed", Status: "ALREADY_EXISTS"}
	case errors.Is(err, usecase.ErrNotAPlaceholder):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "notAPlaceholder", Status: "FAILED_PRECONDITION"}
	case errors.Is(err, match.ErrNotAParticipant):
		return mappedError{HTTPStatus: http.StatusForbidden, Reason: "notAParticipant", Status: "PERMISSION_DENIED"}
	case errors.Is(err, usecase.ErrNotMatchCreator):
		return mappedError{HTTPStatus: http.StatusForbidden, Reason: "notMatchCreator", Status: "PERMISSION_DENIED"}
	case errors.Is(err, match.ErrInvalidRoster),
		errors.Is(err, match.ErrProfileAlreadyInMatch):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidRoster", Status: "INVALID_ARGUMENT"}
	case errors.Is(err, match.ErrInvalidScore):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidScore", Status: "INVALID_ARGUMENT"}
	case errors.Is(err, identity.ErrInvalidPayload):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidPayload", Status: "INVALID_ARGUMENT"}
	case errors.Is(err, usecase.ErrScannedIdentityIsPlaceholder),
		errors.Is(err, usecase.ErrUnlinkedIdentity):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "unclaimableIdentity", Status: "INVALID_ARGUMENT"}
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, profile.ErrMissingUserID):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidInput", Status: "INVALID_ARGUMENT"}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{HTTPStatus: http.StatusNotFound, Reason: "notFound", Status: "NOT_FOUND"}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{HTTPStatus: http.StatusUnauthorized, Reason: "unauthorized", Status: "UNAUTHENTICATED"}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "dependencyUnavailable", Status: "UNAVAILABLE"}
	default:
		return internalError
	}
}
