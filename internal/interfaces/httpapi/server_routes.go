package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET "+openAPIPath, handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPlayerRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/me", handler.GetCurrentPlayer)
	mux.HandleFunc("PATCH /v1/players/me", handler.UpdateCurrentPlayer)
	mux.HandleFunc("POST /v1/players/placeholders", handler.CreatePlaceholder)
	mux.HandleFunc("POST /v1/players/resolve", handler.ResolveIdentity)
	mux.HandleFunc("POST /v1/players/{profileID}/claim", handler.ClaimPlaceholder)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/venues", handler.CreateVenue)
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("POST /v1/matches", handler.CreateMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("DELETE /v1/matches/{matchID}", handler.DeleteMatch)
	mux.HandleFunc("PUT /v1/matches/{matchID}/score", handler.UpdateScore)
	mux.HandleFunc("POST /v1/matches/{matchID}/verify", handler.VerifyMatch)
}

func registerSessionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/session", handler.GetSession)
	mux.HandleFunc("POST /v1/session", handler.SignIn)
	mux.HandleFunc("DELETE /v1/session", handler.SignOut)
	mux.HandleFunc("POST /v1/sync", handler.Sync)
}

func registerMaintenanceRoutes(mux *http.ServeMux, handler *Handler) {
	// Data repair: rewrites local references from one profile id to another.
	mux.HandleFunc("POST /v1/maintenance/match-references", handler.UpdateMatchReferences)
}
