package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user', 'guest')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS keys (
    id                  INTEGER PRIMARY KEY,
    name                TEXT NOT NULL,
    restricted          INTEGER NOT NULL DEFAULT 0,
    current_holder_type TEXT CHECK (current_holder_type IN ('lockbox', 'person')),
    current_holder_name TEXT,
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at          DATETIME
);

-- Not unique: legacy imports may carry one row per physical unit until
-- consolidation merges them. RegisterKeyStock enforces uniqueness going
-- forward.
CREATE INDEX IF NOT EXISTS idx_keys_name
    ON keys(name COLLATE NOCASE) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS key_holders (
    key_id      INTEGER NOT NULL REFERENCES keys(id) ON DELETE CASCADE,
    holder_type TEXT NOT NULL CHECK (holder_type IN ('lockbox', 'person')),
    holder_name TEXT NOT NULL COLLATE NOCASE,
    quantity    INTEGER NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (key_id, holder_type, holder_name)
);

CREATE TABLE IF NOT EXISTS key_logs (
    id           INTEGER PRIMARY KEY,
    key_name     TEXT NOT NULL,
    action       TEXT NOT NULL CHECK (action IN ('Signing Out', 'Signing In')),
    person       TEXT NOT NULL,
    lockbox      TEXT NOT NULL,
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    submitted_by TEXT NOT NULL,
    submitted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS radios (
    id            INTEGER PRIMARY KEY,
    callsign      TEXT NOT NULL,
    radio_number  TEXT NOT NULL,
    serial_number TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'assigned')),
    assigned_to   TEXT,
    assigned_at   DATETIME,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE TABLE IF NOT EXISTS radio_assignments (
    id          INTEGER PRIMARY KEY,
    radio_id    INTEGER NOT NULL REFERENCES radios(id),
    person_name TEXT NOT NULL,
    accessories TEXT,
    assigned_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    returned_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_radio_assignments_open
    ON radio_assignments(radio_id) WHERE returned_at IS NULL;

CREATE TABLE IF NOT EXISTS replacement_parts (
    id            INTEGER PRIMARY KEY,
    assignment_id INTEGER NOT NULL REFERENCES radio_assignments(id),
    part          TEXT NOT NULL,
    added_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS assets (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    location    TEXT,
    description TEXT,
    image       BLOB,
    image_mime  TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE TABLE IF NOT EXISTS components (
    id           INTEGER PRIMARY KEY,
    asset_id     INTEGER NOT NULL REFERENCES assets(id),
    name         TEXT NOT NULL,
    frequency    TEXT NOT NULL,
    last_checked DATETIME,
    next_due     DATETIME,
    status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pass', 'fail', 'pending'))
);

CREATE TABLE IF NOT EXISTS inspections (
    id           INTEGER PRIMARY KEY,
    component_id INTEGER NOT NULL REFERENCES components(id),
    asset_id     INTEGER NOT NULL REFERENCES assets(id),
    inspected_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    inspector    TEXT NOT NULL,
    status       TEXT NOT NULL,
    notes        TEXT,
    frequency    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
