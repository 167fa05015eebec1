package local

import (
	"context"
	"fmt"

	"github.com/riskibarqy/match-ledger/internal/domain/venue"
)

type VenueRepository struct {
	items *collection[venue.Venue]
}

func newVenueRepository(path string) (*VenueRepository, error) {
	items, err := newCollection(path, func(v venue.Venue) string { return v.ID }, cloneVenue)
	if err != nil {
		return nil, fmt.Errorf("open venues: %w", err)
	}
	return &VenueRepository{items: items}, nil
}

func (r *VenueRepository) GetByID(_ context.Context, id string) (venue.Venue, bool, error) {
	item, ok := r.items.get(id)
	return item, ok, nil
}

func (r *VenueRepository) List(_ context.Context) ([]venue.Venue, error) {
	return r.items.filter(nil), nil
}

func (r *VenueRepository) Upsert(_ context.Context, item venue.Venue) error {
	if item.ID == "" {
		return fmt.Errorf("upsert venue: id is required")
	}
	return r.items.put(item)
}

func cloneVenue(v venue.Venue) venue.Venue {
	copied := v
	if v.Latitude != nil {
		lat := *v.Latitude
		copied.Latitude = &lat
	}
	if v.Longitude != nil {
		lng := *v.Longitude
		copied.Longitude = &lng
	}
	return copied
}
