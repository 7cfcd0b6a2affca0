// Package zones manages the paintball fields ("zones") that can be
// reserved. A zone has a player capacity that quick reservations are
// checked against.
package zones

import "time"

// Zone statuses.
const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
)

// Zone is one reservable field.
type Zone struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAvailable reports whether the zone is not flagged occupied.
func (z *Zone) IsAvailable() bool {
	return z.Status != StatusOccupied
}

// maxNameLength matches zones.name VARCHAR(100).
const maxNameLength = 100

// CreateZoneInput is the input for creating a zone.
type CreateZoneInput struct {
	Name        string
	Capacity    int
	Description string
}

// ZoneListData holds everything the zone list page renders.
type ZoneListData struct {
	Zones     []Zone
	IsStaff   bool
	CSRFToken string
}
