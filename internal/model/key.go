package model

import (
	"strings"
	"time"
)

// Key represents a named physical key. Non-restricted keys exist in multiple
// copies distributed across holders; restricted keys are single-unit and
// track one current holder directly.
type Key struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Restricted bool       `json:"restricted"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`

	// Holder list for non-restricted keys (not always populated).
	Holders []Holder `json:"holders,omitempty"`

	// Current holder for restricted keys.
	CurrentHolder *Holder `json:"current_holder,omitempty"`
}

// Holder is an entity currently possessing some quantity of a key.
type Holder struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Holder types.
const (
	HolderLockbox = "lockbox"
	HolderPerson  = "person"
)

// Custody actions.
const (
	ActionSigningOut = "Signing Out"
	ActionSigningIn  = "Signing In"
)

// KeyLogEntry is an immutable custody-transfer audit record.
type KeyLogEntry struct {
	ID          int64     `json:"id"`
	KeyName     string    `json:"key_name"`
	Action      string    `json:"action"`
	Person      string    `json:"person"`
	Lockbox     string    `json:"lockbox"`
	Quantity    int       `json:"quantity"`
	SubmittedBy string    `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// KeyHolding is a flattened (key, holder) view row used by listings and
// custody search.
type KeyHolding struct {
	KeyID      int64  `json:"key_id"`
	KeyName    string `json:"key_name"`
	HolderType string `json:"holder_type"`
	HolderName string `json:"holder_name"`
	Quantity   int    `json:"quantity"`
}

// TotalQuantity sums the quantities of all holders.
func (k *Key) TotalQuantity() int {
	total := 0
	for _, h := range k.Holders {
		total += h.Quantity
	}
	return total
}

// NormalizeName is the single normalization applied before any name
// comparison: trimmed and lowercased. All key and holder name matching in
// the store goes through this (or the equivalent NOCASE collation).
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameName reports whether two names match under NormalizeName.
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
