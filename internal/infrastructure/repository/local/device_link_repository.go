package local

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/match-ledger/internal/domain/devicelink"
)

// DeviceLinkRepository keys links by device id, so a device can hold one link only.
type DeviceLinkRepository struct {
	items *collection[devicelink.Link]
}

func newDeviceLinkRepository(path string) (*DeviceLinkRepository, error) {
	items, err := newCollection(path, func(l devicelink.Link) string { return l.DeviceID }, func(l devicelink.Link) devicelink.Link { return l })
	if err != nil {
		return nil, fmt.Errorf("open device links: %w", err)
	}
	return &DeviceLinkRepository{items: items}, nil
}

func (r *DeviceLinkRepository) GetByDeviceID(_ context.Context, deviceID string) (devicelink.Link, bool, error) {
	item, ok := r.items.get(strings.TrimSpace(deviceID))
	return item, ok, nil
}

func (r *DeviceLinkRepository) ListByProfileID(_ context.Context, profileID string) ([]devicelink.Link, error) {
	return r.items.filter(func(l devicelink.Link) bool {
		return l.ProfileID == profileID
	}), nil
}

func (r *DeviceLinkRepository) Upsert(_ context.Context, item devicelink.Link) error {
	item.DeviceID = strings.TrimSpace(item.DeviceID)
	if item.DeviceID == "" {
		return fmt.Errorf("upsert device link: device id is required")
	}
	if strings.TrimSpace(item.ProfileID) == "" {
		return fmt.Errorf("upsert device link: profile id is required")
	}
	return r.items.put(item)
}

func (r *DeviceLinkRepository) RepointProfile(_ context.Context, oldProfileID, newProfileID string, now time.Time) (int, error) {
	return r.items.mutate(func(l devicelink.Link) (devicelink.Link, bool) {
		if l.ProfileID != oldProfileID {
			return l, false
		}
		l.ProfileID = newProfileID
		l.UpdatedAt = now.UTC()
		return l, true
	})
}
