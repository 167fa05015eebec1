package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMissingUserID = errors.New("non-placeholder profile requires user id")

// Profile is a player identity. Empty string fields stand for null.
type Profile struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id,omitempty"`
	IsPlaceholder   bool      `json:"is_placeholder"`
	PlaceholderCode string    `json:"placeholder_code,omitempty"`
	ClaimedBy       string    `json:"claimed_by,omitempty"`
	DefaultVenueID  string    `json:"default_venue_id,omitempty"`
	DisplayName     string    `json:"display_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Syncable reports whether the profile is backed by an account and may be uploaded.
func (p Profile) Syncable() bool {
	return strings.TrimSpace(p.UserID) != ""
}

// IsUnclaimedPlaceholder is true for guests nobody has claimed yet.
func (p Profile) IsUnclaimedPlaceholder() bool {
	return p.IsPlaceholder && strings.TrimSpace(p.ClaimedBy) == ""
}

// OwnedBy reports whether the account either registered or claimed this profile.
func (p Profile) OwnedBy(accountID string) bool {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return false
	}
	return p.UserID == accountID || p.ClaimedBy == accountID
}

func (p Profile) ValidateBasic() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile id is required")
	}
	if !p.IsPlaceholder && strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("%w: profile=%s", ErrMissingUserID, p.ID)
	}
	return nil
}
