package model

import "time"

// Radio represents a handheld radio. A radio is either available or
// assigned to exactly one person.
type Radio struct {
	ID           int64      `json:"id"`
	Callsign     string     `json:"callsign"`
	RadioNumber  string     `json:"radio_number"`
	SerialNumber string     `json:"serial_number"`
	Status       string     `json:"status"`
	AssignedTo   string     `json:"assigned_to,omitempty"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Radio statuses.
const (
	RadioAvailable = "available"
	RadioAssigned  = "assigned"
)

// Radio accessories. Pairing rules are enforced at sign-out.
const (
	AccessorySurveillanceKit = "surveillance kit"
	AccessoryEarpiece        = "earpiece"
)

// RadioAssignment is an append-only assignment history record. An open
// assignment has ReturnedAt == nil; at most one open assignment exists per
// radio.
type RadioAssignment struct {
	ID           int64      `json:"id"`
	RadioID      int64      `json:"radio_id"`
	Callsign     string     `json:"callsign,omitempty"`
	RadioNumber  string     `json:"radio_number,omitempty"`
	SerialNumber string     `json:"serial_number,omitempty"`
	PersonName   string     `json:"person_name"`
	Accessories  []string   `json:"accessories,omitempty"`
	AssignedAt   time.Time  `json:"assigned_at"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`

	// Joined replacement parts (not always populated).
	ReplacementParts []ReplacementPart `json:"replacement_parts,omitempty"`
}

// ReplacementPart records a part fitted to a radio during an assignment.
type ReplacementPart struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	Part         string    `json:"part"`
	AddedAt      time.Time `json:"added_at"`
}
