package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/backend"
	"github.com/riskibarqy/match-ledger/internal/domain/devicelink"
	"github.com/riskibarqy/match-ledger/internal/domain/identity"
	"github.com/riskibarqy/match-ledger/internal/domain/profile"
	"github.com/riskibarqy/match-ledger/internal/domain/reconcile"
	"github.com/riskibarqy/match-ledger/internal/platform/device"
	"github.com/riskibarqy/match-ledger/internal/platform/id"
	"github.com/riskibarqy/match-ledger/internal/platform/logging"
	"golang.org/x/sync/singleflight"
)

const (
	currentPlayerName = "You"
	guestNamePrefix   = "Guest "
	scannedPlayerName = "Player"
	maxDisplayNameLen = 100
)

type UpdateProfileInput struct {
	ProfileID      string
	DisplayName    *string
	DefaultVenueID *string
}

type ProfileService struct {
	profiles profile.Repository
	links    devicelink.Repository
	device   device.Identity
	remote   backend.Backend
	ids      id.Generator
	codes    id.CodeGenerator
	logger   *logging.Logger

	bootstrap singleflight.Group
	fetches   singleflight.Group
	now       func() time.Time
}

func NewProfileService(
	profiles profile.Repository,
	links devicelink.Repository,
	deviceIdentity device.Identity,
	remote backend.Backend,
	ids id.Generator,
	codes id.CodeGenerator,
	logger *logging.Logger,
) *ProfileService {
	if logger == nil {
		logger = logging.Default()
	}
	if codes == nil {
		codes = id.NewRandomCodeGenerator(id.DefaultCodeLength)
	}

	return &ProfileService{
		profiles: profiles,
		links:    links,
		device:   deviceIdentity,
		remote:   remote,
		ids:      ids,
		codes:    codes,
		logger:   logger,
		now:      time.Now,
	}
}

// CurrentPlayer returns the profile bound to this device, creating and binding
// a "You" placeholder on first use. Concurrent first calls share one bootstrap.
func (s *ProfileService) CurrentPlayer(ctx context.Context) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.CurrentPlayer")
	defer span.End()

	deviceID, err := s.device.DeviceID(ctx)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("resolve device id: %w", err)
	}

	v, err, _ := s.bootstrap.Do(deviceID, func() (any, error) {
		return s.currentPlayer(ctx, deviceID)
	})
	if err != nil {
		return profile.Profile{}, err
	}
	return v.(profile.Profile), nil
}

func (s *ProfileService) currentPlayer(ctx context.Context, deviceID string) (profile.Profile, error) {
	link, linked, err := s.links.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get device link: %w", err)
	}
	if linked {
		item, exists, err := s.profiles.GetByID(ctx, link.ProfileID)
		if err != nil {
			return profile.Profile{}, fmt.Errorf("get linked profile: %w", err)
		}
		if exists {
			return item, nil
		}
		s.logger.WarnContext(ctx, "device link points at a missing profile, creating a new one",
			"device_id", deviceID,
			"profile_id", link.ProfileID,
		)
	}

	me, err := s.newPlaceholder(currentPlayerName)
	if err != nil {
		return profile.Profile{}, err
	}
	if err := s.profiles.Upsert(ctx, me); err != nil {
		return profile.Profile{}, fmt.Errorf("save current player: %w", err)
	}
	if err := s.bindDevice(ctx, deviceID, me.ID, link, linked); err != nil {
		return profile.Profile{}, err
	}

	s.logger.InfoContext(ctx, "created current player", "device_id", deviceID, "profile_id", me.ID)
	return me, nil
}

// bindDevice repoints the existing link instead of adding a second one.
func (s *ProfileService) bindDevice(ctx context.Context, deviceID, profileID string, existing devicelink.Link, exists bool) error {
	now := s.now().UTC()
	link := existing
	if !exists {
		linkID, err := s.ids.NewID()
		if err != nil {
			return fmt.Errorf("generate device link id: %w", err)
		}
		link = devicelink.Link{ID: linkID, DeviceID: deviceID, CreatedAt: now}
	}
	link.ProfileID = profileID
	link.UpdatedAt = now

	if err := s.links.Upsert(ctx, link); err != nil {
		return fmt.Errorf("save device link: %w", err)
	}
	return nil
}

// ResolveFromIdentityPayload turns a scanned identity into a local profile.
// The remote copy wins when reachable, then the local cache, and as a last
// resort a placeholder is materialized from the payload itself.
func (s *ProfileService) ResolveFromIdentityPayload(ctx context.Context, payload identity.Payload) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.ResolveFromIdentityPayload")
	defer span.End()

	if err := payload.Validate(); err != nil {
		return profile.Profile{}, err
	}

	remoteCopy, found, err := s.fetchRemote(ctx, payload.ProfileID)
	if err != nil {
		s.logger.WarnContext(ctx, "remote profile lookup failed, falling back to local cache",
			"profile_id", payload.ProfileID,
			"error", err,
		)
	}
	if err == nil && found {
		if _, err := s.adoptRemote(ctx, remoteCopy); err != nil {
			return profile.Profile{}, err
		}
		return remoteCopy, nil
	}

	local, exists, err := s.profiles.GetByID(ctx, payload.ProfileID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get local profile: %w", err)
	}
	if exists {
		return local, nil
	}

	// Without a remote copy there is no account id to carry, so the scanned
	// profile stays a placeholder locally until a later sync fills it in.
	now := s.now().UTC()
	item := profile.Profile{
		ID:            payload.ProfileID,
		IsPlaceholder: true,
		DisplayName:   firstNonEmpty(payload.DisplayName, scannedPlayerName),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.profiles.Upsert(ctx, item); err != nil {
		return profile.Profile{}, fmt.Errorf("save scanned profile: %w", err)
	}
	return item, nil
}

// CreatePlaceholder stores a guest profile. A blank name becomes "Guest N".
func (s *ProfileService) CreatePlaceholder(ctx context.Context, name string) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.CreatePlaceholder")
	defer span.End()

	name = strings.TrimSpace(name)
	if len(name) > maxDisplayNameLen {
		return profile.Profile{}, fmt.Errorf("%w: display_name must be at most %d characters", ErrInvalidInput, maxDisplayNameLen)
	}
	if name == "" {
		existing, err := s.profiles.List(ctx)
		if err != nil {
			return profile.Profile{}, fmt.Errorf("list profiles: %w", err)
		}
		name = nextGuestName(existing)
	}

	item, err := s.newPlaceholder(name)
	if err != nil {
		return profile.Profile{}, err
	}
	if err := s.profiles.Upsert(ctx, item); err != nil {
		return profile.Profile{}, fmt.Errorf("save placeholder: %w", err)
	}
	return item, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, profileID string) (profile.Profile, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return profile.Profile{}, fmt.Errorf("%w: profile_id is required", ErrInvalidInput)
	}

	item, exists, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if !exists {
		return profile.Profile{}, fmt.Errorf("%w: profile=%s", ErrNotFound, profileID)
	}
	return item, nil
}

func (s *ProfileService) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	items, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return items, nil
}

// UpdateProfile edits the display fields. Nil fields are left alone.
func (s *ProfileService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (profile.Profile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.UpdateProfile")
	defer span.End()

	item, err := s.GetProfile(ctx, input.ProfileID)
	if err != nil {
		return profile.Profile{}, err
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return profile.Profile{}, fmt.Errorf("%w: display_name must not be empty", ErrInvalidInput)
		}
		if len(name) > maxDisplayNameLen {
			return profile.Profile{}, fmt.Errorf("%w: display_name must be at most %d characters", ErrInvalidInput, maxDisplayNameLen)
		}
		item.DisplayName = name
	}
	if input.DefaultVenueID != nil {
		item.DefaultVenueID = strings.TrimSpace(*input.DefaultVenueID)
	}
	item.UpdatedAt = s.now().UTC()

	if err := s.profiles.Upsert(ctx, item); err != nil {
		return profile.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return item, nil
}

func (s *ProfileService) newPlaceholder(name string) (profile.Profile, error) {
	profileID, err := s.ids.NewID()
	if err != nil {
		return profile.Profile{}, fmt.Errorf("generate profile id: %w", err)
	}
	code, err := s.codes.NewCode()
	if err != nil {
		return profile.Profile{}, fmt.Errorf("generate placeholder code: %w", err)
	}

	now := s.now().UTC()
	return profile.Profile{
		ID:              profileID,
		IsPlaceholder:   true,
		PlaceholderCode: code,
		DisplayName:     name,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// fetchRemote collapses concurrent lookups of the same profile id.
func (s *ProfileService) fetchRemote(ctx context.Context, profileID string) (profile.Profile, bool, error) {
	type fetched struct {
		item  profile.Profile
		found bool
	}

	v, err, _ := s.fetches.Do(profileID, func() (any, error) {
		item, found, err := s.remote.GetProfile(ctx, profileID)
		if err != nil {
			return fetched{}, err
		}
		return fetched{item: item, found: found}, nil
	})
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("fetch remote profile %s: %w", profileID, err)
	}
	out := v.(fetched)
	return out.item, out.found, nil
}

// adoptRemote merges a remote profile into the local store. A strictly newer
// remote copy wins, and so does any copy that carries an account id the
// local one lacks.
func (s *ProfileService) adoptRemote(ctx context.Context, remoteCopy profile.Profile) (bool, error) {
	local, exists, err := s.profiles.GetByID(ctx, remoteCopy.ID)
	if err != nil {
		return false, fmt.Errorf("get local profile: %w", err)
	}

	decision := reconcile.ResolveByUpdatedAt(remoteCopy.UpdatedAt, local.UpdatedAt, exists)
	if decision == reconcile.DecisionIgnore && !(remoteCopy.Syncable() && !local.Syncable()) {
		return false, nil
	}
	if err := s.profiles.Upsert(ctx, remoteCopy); err != nil {
		if errors.Is(err, profile.ErrMissingUserID) {
			s.logger.WarnContext(ctx, "skip invalid remote profile", "profile_id", remoteCopy.ID, "error", err)
			return false, nil
		}
		return false, fmt.Errorf("save remote profile: %w", err)
	}
	return true, nil
}

func nextGuestName(existing []profile.Profile) string {
	highest := 0
	for _, item := range existing {
		suffix, ok := strings.CutPrefix(item.DisplayName, guestNamePrefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(suffix))
		if err != nil || n <= highest {
			continue
		}
		highest = n
	}
	return guestNamePrefix + strconv.Itoa(highest+1)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
