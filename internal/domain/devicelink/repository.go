package devicelink

import (
	"context"
	"time"
)

type Repository interface {
	GetByDeviceID(ctx context.Context, deviceID string) (Link, bool, error)
	ListByProfileID(ctx context.Context, profileID string) ([]Link, error)
	// Upsert replaces any existing link for the same device.
	Upsert(ctx context.Context, item Link) error
	RepointProfile(ctx context.Context, oldProfileID, newProfileID string, now time.Time) (int, error)
}
