package local

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	profilesFile    = "profiles.json"
	matchesFile     = "matches.json"
	deviceLinksFile = "device_links.json"
	knownUsersFile  = "known_users.json"
	venuesFile      = "venues.json"
)

// Store groups the per-device collections.
type Store struct {
	Profiles    *ProfileRepository
	Matches     *MatchRepository
	DeviceLinks *DeviceLinkRepository
	KnownUsers  *KnownUserRepository
	Venues      *VenueRepository
}

// Open loads (or creates) the collections under dir. An empty dir gives a
// memory-only store.
func Open(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	pathFor := func(name string) string {
		if dir == "" {
			return ""
		}
		return filepath.Join(dir, name)
	}

	profiles, err := newProfileRepository(pathFor(profilesFile))
	if err != nil {
		return nil, err
	}
	matches, err := newMatchRepository(pathFor(matchesFile))
	if err != nil {
		return nil, err
	}
	links, err := newDeviceLinkRepository(pathFor(deviceLinksFile))
	if err != nil {
		return nil, err
	}
	knownUsers, err := newKnownUserRepository(pathFor(knownUsersFile))
	if err != nil {
		return nil, err
	}
	venues, err := newVenueRepository(pathFor(venuesFile))
	if err != nil {
		return nil, err
	}

	return &Store{
		Profiles:    profiles,
		Matches:     matches,
		DeviceLinks: links,
		KnownUsers:  knownUsers,
		Venues:      venues,
	}, nil
}

func NewInMemory() *Store {
	store, err := Open("")
	if err != nil {
		// memory-only collections never touch the filesystem
		panic(err)
	}
	return store
}
