package postgrest

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/match"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
	"github.com/riskibarqy/match-ledger/internal/platform/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "anon-key", CircuitBreaker: breaker}, logging.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClient_GetProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/profiles" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("unexpected apikey header: %q", got)
		}
		if got := r.URL.Query().Get("id"); got == "eq.missing" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"p1","user_id":"acct-1","is_placeholder":false,"placeholder_code":null,"claimed_by":null,"default_venue_id":null,"display_name":"Rin","created_at":"2026-04-01T08:00:00+00:00","updated_at":"2026-04-01T09:30:00.123456+00:00"}]`))
	}, resilience.CircuitBreakerConfig{})

	got, found, err := client.GetProfile(t.Context(), "p1")
	if err != nil || !found {
		t.Fatalf("get profile: found=%v err=%v", found, err)
	}
	if got.UserID != "acct-1" || got.ClaimedBy != "" || got.UpdatedAt.Minute() != 30 {
		t.Fatalf("unexpected profile: %+v", got)
	}

	_, found, err = client.GetProfile(t.Context(), "missing")
	if err != nil || found {
		t.Fatalf("expected not found, found=%v err=%v", found, err)
	}
}

func TestClient_ListProfilesByIDsQuotesReservedValues(t *testing.T) {
	var gotFilter string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("id")
		_, _ = w.Write([]byte(`[]`))
	}, resilience.CircuitBreakerConfig{})

	if _, err := client.ListProfilesByIDs(t.Context(), []string{"p1", "odd,id"}); err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if gotFilter != `in.(p1,"odd,id")` {
		t.Fatalf("unexpected in filter: %s", gotFilter)
	}
}

func TestClient_UpsertMatchSendsNullsWithoutLocalState(t *testing.T) {
	var (
		body map[string]any
		path string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		var args struct {
			Row map[string]any `json:"p_row"`
		}
		if err := sonic.Unmarshal(raw, &args); err != nil || args.Row == nil {
			t.Errorf("decode body: %v (%s)", err, raw)
			return
		}
		body = args.Row
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	}, resilience.CircuitBreakerConfig{})

	synced := time.Now()
	err := client.UpsertMatch(t.Context(), match.Match{
		ID: "m1", CreatedBy: "A", Team1Player1: "A", Team2Player1: "C", Version: 1, SyncedAt: &synced,
		Pending: &match.PendingPush{BaseVersion: 1},
	})
	if err != nil {
		t.Fatalf("upsert match: %v", err)
	}
	if path != "/rest/v1/rpc/upsert_match" {
		t.Fatalf("expected guarded upsert procedure, got %s", path)
	}
	for _, key := range []string{"synced_at", "pending"} {
		if _, ok := body[key]; ok {
			t.Fatalf("%s must never be sent", key)
		}
	}
	if v, ok := body["team1_player2"]; !ok || v != nil {
		t.Fatalf("expected explicit null for empty slot, got %v (present=%v)", v, ok)
	}
}

func TestClient_UpsertMatchMapsRejections(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		targetErr error
	}{
		{name: "remote is newer", code: "LV409", targetErr: backend.ErrVersionConflict},
		{name: "remote is verified", code: "LV423", targetErr: match.ErrMatchAlreadyVerified},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":"` + tc.code + `","message":"rejected","details":null,"hint":null}`))
			}, resilience.CircuitBreakerConfig{})

			err := client.UpsertMatch(t.Context(), match.Match{ID: "m1", Version: 1})
			if !errors.Is(err, tc.targetErr) {
				t.Fatalf("expected %v, got %v", tc.targetErr, err)
			}
		})
	}
}

func TestClient_UpdateMatchScoreMapsProcedureErrors(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		targetErr error
	}{
		{name: "version conflict", code: "LV409", targetErr: backend.ErrVersionConflict},
		{name: "not found", code: "LV404", targetErr: backend.ErrNotFound},
		{name: "already verified", code: "LV423", targetErr: match.ErrMatchAlreadyVerified},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/rest/v1/rpc/update_match_score" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":"` + tc.code + `","message":"rejected","details":null,"hint":null}`))
			}, resilience.CircuitBreakerConfig{})

			_, err := client.UpdateMatchScore(t.Context(), backend.UpdateScoreParams{MatchID: "m1", ExpectedVersion: 1})
			if !errors.Is(err, tc.targetErr) {
				t.Fatalf("expected %v, got %v", tc.targetErr, err)
			}
		})
	}
}

func TestClient_VerifyMatchForTeamDecodesRow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var args map[string]string
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &args)
		if args["p_match_id"] != "m1" || args["p_profile_id"] != "C" {
			t.Errorf("unexpected rpc args: %v", args)
		}
		_, _ = w.Write([]byte(`{"id":"m1","team1_player1":"A","team2_player1":"C","team1_verified_by":"A","team2_verified_by":"C","is_verified":true,"verified_by":"C","version":1,"score_team1":11,"score_team2":9,"fingerprint":"f","played_at":"2026-04-01T08:00:00Z","created_at":"2026-04-01T08:00:00Z","updated_at":"2026-04-01T08:05:00Z"}`))
	}, resilience.CircuitBreakerConfig{})

	got, err := client.VerifyMatchForTeam(t.Context(), "m1", "C")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !got.IsVerified || got.VerifiedBy != "C" || got.Status() != match.StatusVerified {
		t.Fatalf("unexpected match: %+v", got)
	}
}

func TestClient_DeleteVerifiedMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			_, _ = w.Write([]byte(`[]`))
		default:
			_, _ = w.Write([]byte(`[{"id":"m1","is_verified":true,"version":1,"fingerprint":"f","played_at":"2026-04-01T08:00:00Z","created_at":"2026-04-01T08:00:00Z","updated_at":"2026-04-01T08:00:00Z"}]`))
		}
	}, resilience.CircuitBreakerConfig{})

	if err := client.DeleteMatch(t.Context(), "m1"); !errors.Is(err, match.ErrMatchAlreadyVerified) {
		t.Fatalf("expected ErrMatchAlreadyVerified, got %v", err)
	}
}

func TestClient_ServerErrorsOpenCircuit(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Hour, HalfOpenMaxReq: 1})

	for i := 0; i < 3; i++ {
		if _, _, err := client.GetMatch(t.Context(), "m1"); !errors.Is(err, backend.ErrUnavailable) {
			t.Fatalf("call %d: expected ErrUnavailable, got %v", i, err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected open circuit to stop the third call, got %d calls", calls.Load())
	}
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "ftp://example.com"}, nil); err == nil {
		t.Fatalf("expected unsupported scheme to be rejected")
	}
}
