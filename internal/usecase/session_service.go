package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/riskibarqy/match-ledger/internal/domain/account"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
)

// SessionState reports the signed-in account, or "" when signed out.
type SessionState interface {
	AccountID() string
}

// AccessTokenVerifier maps a bearer token to the account behind it.
type AccessTokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (account.Principal, error)
}

type SignInInput struct {
	AccessToken string
	// AccountID is only honoured when no token verifier is configured.
	AccountID string
}

type SignInResult struct {
	AccountID string     `json:"account_id"`
	Sync      SyncReport `json:"sync"`
}

type SessionService struct {
	sync     *SyncService
	verifier AccessTokenVerifier
	logger   *logging.Logger

	mu        sync.RWMutex
	accountID string
}

func NewSessionService(syncService *SyncService, verifier AccessTokenVerifier, logger *logging.Logger) *SessionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionService{
		sync:     syncService,
		verifier: verifier,
		logger:   logger,
	}
}

func (s *SessionService) AccountID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountID
}

// SignIn establishes the session and runs a full sync. A profile conflict
// tears the session down again.
func (s *SessionService) SignIn(ctx context.Context, input SignInInput) (SignInResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.SignIn")
	defer span.End()

	accountID, err := s.resolveAccount(ctx, input)
	if err != nil {
		return SignInResult{}, err
	}

	s.mu.Lock()
	s.accountID = accountID
	s.mu.Unlock()

	report, err := s.sync.SyncAll(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrProfileConflict) {
			s.logger.WarnContext(ctx, "profile conflict on sign-in, signing out", "account_id", accountID, "error", err)
			s.SignOut(ctx)
		}
		return SignInResult{AccountID: accountID, Sync: report}, err
	}
	return SignInResult{AccountID: accountID, Sync: report}, nil
}

// Sync runs a pass for the signed-in account.
func (s *SessionService) Sync(ctx context.Context) (SyncReport, error) {
	accountID := s.AccountID()
	if accountID == "" {
		return SyncReport{}, fmt.Errorf("%w: not signed in", ErrUnauthorized)
	}

	report, err := s.sync.SyncAll(ctx, accountID)
	if errors.Is(err, ErrProfileConflict) {
		s.SignOut(ctx)
	}
	return report, err
}

func (s *SessionService) SignOut(ctx context.Context) {
	s.mu.Lock()
	prev := s.accountID
	s.accountID = ""
	s.mu.Unlock()

	if prev != "" {
		s.logger.InfoContext(ctx, "signed out", "account_id", prev)
	}
}

func (s *SessionService) resolveAccount(ctx context.Context, input SignInInput) (string, error) {
	if s.verifier == nil {
		accountID := strings.TrimSpace(input.AccountID)
		if accountID == "" {
			return "", fmt.Errorf("%w: account_id is required", ErrInvalidInput)
		}
		return accountID, nil
	}

	token := strings.TrimSpace(input.AccessToken)
	if token == "" {
		return "", fmt.Errorf("%w: access token is required", ErrUnauthorized)
	}
	principal, err := s.verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("verify access token: %w", err)
	}
	return principal.AccountID, nil
}
