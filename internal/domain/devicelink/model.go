package devicelink

import "time"

// Link binds one device to exactly one profile at a time.
type Link struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	ProfileID string    `json:"profile_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
