package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ztrcek/hisnik/internal/model"
)

// InsertKeyLog appends a custody audit entry. Entries are never mutated or
// deleted.
func InsertKeyLog(ctx context.Context, db *sql.DB, entry model.KeyLogEntry) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO key_logs (key_name, action, person, lockbox, quantity, submitted_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.KeyName, entry.Action, entry.Person, entry.Lockbox, entry.Quantity, entry.SubmittedBy,
	)
	if err != nil {
		return fmt.Errorf("inserting key log: %w", err)
	}
	return nil
}

// ListKeyLogs returns custody log entries, newest first, optionally
// filtered by key name (case-insensitive).
func ListKeyLogs(ctx context.Context, db *sql.DB, keyName string, limit int) ([]model.KeyLogEntry, error) {
	query := `SELECT id, key_name, action, person, lockbox, quantity, submitted_by, submitted_at
	          FROM key_logs`
	var args []any

	if keyName != "" {
		query += ` WHERE key_name = ? COLLATE NOCASE`
		args = append(args, trimmed(keyName))
	}

	query += ` ORDER BY submitted_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing key logs: %w", err)
	}
	defer rows.Close()

	return scanKeyLogs(rows)
}

// CustodySearchResult groups custody search matches by facet, plus the
// matching log history newest first.
type CustodySearchResult struct {
	Assigned  []model.KeyHolding  `json:"assigned"`
	Lockboxes []model.KeyHolding  `json:"lockboxes"`
	Logs      []model.KeyLogEntry `json:"logs"`
}

// SearchCustody matches a query string case-insensitively against
// person-held keys (person or key name), lockbox holdings (lockbox or key
// name), and the custody log (key name or person).
func SearchCustody(ctx context.Context, db *sql.DB, query string) (*CustodySearchResult, error) {
	q := trimmed(query)
	result := &CustodySearchResult{
		Assigned:  []model.KeyHolding{},
		Lockboxes: []model.KeyHolding{},
		Logs:      []model.KeyLogEntry{},
	}
	if q == "" {
		return result, nil
	}
	pattern := "%" + q + "%"

	var err error
	result.Assigned, err = searchHoldings(ctx, db, model.HolderPerson, pattern)
	if err != nil {
		return nil, err
	}
	result.Lockboxes, err = searchHoldings(ctx, db, model.HolderLockbox, pattern)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, key_name, action, person, lockbox, quantity, submitted_by, submitted_at
		 FROM key_logs
		 WHERE key_name LIKE ? OR person LIKE ?
		 ORDER BY submitted_at DESC, id DESC`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("searching key logs: %w", err)
	}
	defer rows.Close()

	result.Logs, err = scanKeyLogs(rows)
	if err != nil {
		return nil, err
	}
	if result.Logs == nil {
		result.Logs = []model.KeyLogEntry{}
	}
	return result, nil
}

func searchHoldings(ctx context.Context, db *sql.DB, holderType, pattern string) ([]model.KeyHolding, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT k.id, k.name, h.holder_type, h.holder_name, h.quantity
		 FROM key_holders h
		 JOIN keys k ON k.id = h.key_id
		 WHERE k.deleted_at IS NULL AND h.holder_type = ?
		   AND (h.holder_name LIKE ? OR k.name LIKE ?)
		 ORDER BY k.name COLLATE NOCASE, h.holder_name`,
		holderType, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("searching %s holdings: %w", holderType, err)
	}
	defer rows.Close()

	holdings := []model.KeyHolding{}
	for rows.Next() {
		var h model.KeyHolding
		if err := rows.Scan(&h.KeyID, &h.KeyName, &h.HolderType, &h.HolderName, &h.Quantity); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func scanKeyLogs(rows *sql.Rows) ([]model.KeyLogEntry, error) {
	var entries []model.KeyLogEntry
	for rows.Next() {
		var e model.KeyLogEntry
		if err := rows.Scan(&e.ID, &e.KeyName, &e.Action, &e.Person, &e.Lockbox, &e.Quantity, &e.SubmittedBy, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scanning key log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
