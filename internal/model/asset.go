package model

import "time"

// Asset represents a maintained piece of equipment or infrastructure.
type Asset struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	ImageMime   string     `json:"image_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Component is an inspectable sub-part of an asset with a recurring
// inspection schedule. NextDue is derived and recomputed whenever an
// inspection is logged.
type Component struct {
	ID          int64      `json:"id"`
	AssetID     int64      `json:"asset_id"`
	Name        string     `json:"name"`
	Frequency   string     `json:"frequency"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	NextDue     *time.Time `json:"next_due,omitempty"`
	Status      string     `json:"status"`

	// Joined fields (not always populated).
	AssetName string `json:"asset_name,omitempty"`
}

// Component inspection statuses.
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusPending = "pending"
)

// InspectionRecord is an immutable record of one inspection event.
type InspectionRecord struct {
	ID          int64     `json:"id"`
	ComponentID int64     `json:"component_id"`
	AssetID     int64     `json:"asset_id"`
	InspectedAt time.Time `json:"inspected_at"`
	Inspector   string    `json:"inspector"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	Frequency   string    `json:"frequency"`
}
