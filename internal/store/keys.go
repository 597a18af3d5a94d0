package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ztrcek/hisnik/internal/model"
)

// CreateKey creates a key record. Restricted keys carry a single current
// holder; non-restricted keys start with an empty holder list and receive
// stock through RegisterKeyStock.
func CreateKey(ctx context.Context, db *sql.DB, name string, restricted bool, holder *model.Holder) (*model.Key, error) {
	name = trimmed(name)
	if name == "" {
		return nil, model.Validationf("name", "required")
	}
	if restricted && holder == nil {
		return nil, model.Validationf("current_holder", "required for restricted keys")
	}

	existing, err := findKeyID(ctx, db, name)
	if err != nil {
		return nil, err
	}
	if existing != 0 {
		return nil, model.Validationf("name", "key %q already exists", name)
	}

	var result sql.Result
	if restricted {
		result, err = db.ExecContext(ctx,
			`INSERT INTO keys (name, restricted, current_holder_type, current_holder_name)
			 VALUES (?, 1, ?, ?)`,
			name, holder.Type, trimmed(holder.Name),
		)
	} else {
		result, err = db.ExecContext(ctx,
			`INSERT INTO keys (name, restricted) VALUES (?, 0)`, name,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("creating key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting key id: %w", err)
	}

	return GetKey(ctx, db, id)
}

// GetKey returns a key by ID with its holders populated.
func GetKey(ctx context.Context, db *sql.DB, id int64) (*model.Key, error) {
	k := &model.Key{}
	var holderType, holderName sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, restricted, current_holder_type, current_holder_name, created_at, deleted_at
		 FROM keys WHERE id = ?`, id,
	).Scan(&k.ID, &k.Name, &k.Restricted, &holderType, &holderName, &k.CreatedAt, &k.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting key: %w", err)
	}

	if k.Restricted {
		if holderType.Valid {
			k.CurrentHolder = &model.Holder{Type: holderType.String, Name: holderName.String, Quantity: 1}
		}
		return k, nil
	}

	k.Holders, err = getKeyHolders(ctx, db, k.ID)
	if err != nil {
		return nil, err
	}
	return k, nil
}

// GetKeyByName returns a non-restricted key by case-insensitive name match.
func GetKeyByName(ctx context.Context, db *sql.DB, name string) (*model.Key, error) {
	id, err := findKeyID(ctx, db, trimmed(name))
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return GetKey(ctx, db, id)
}

// ListKeys returns all non-deleted keys with their holders populated.
func ListKeys(ctx context.Context, db *sql.DB) ([]model.Key, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, restricted, current_holder_type, current_holder_name, created_at, deleted_at
		 FROM keys WHERE deleted_at IS NULL ORDER BY name COLLATE NOCASE`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []model.Key
	byID := map[int64]int{}
	for rows.Next() {
		var k model.Key
		var holderType, holderName sql.NullString
		if err := rows.Scan(&k.ID, &k.Name, &k.Restricted, &holderType, &holderName, &k.CreatedAt, &k.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		if k.Restricted && holderType.Valid {
			k.CurrentHolder = &model.Holder{Type: holderType.String, Name: holderName.String, Quantity: 1}
		}
		byID[k.ID] = len(keys)
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	holderRows, err := db.QueryContext(ctx,
		`SELECT h.key_id, h.holder_type, h.holder_name, h.quantity
		 FROM key_holders h
		 JOIN keys k ON k.id = h.key_id
		 WHERE k.deleted_at IS NULL
		 ORDER BY h.holder_type, h.holder_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing key holders: %w", err)
	}
	defer holderRows.Close()

	for holderRows.Next() {
		var keyID int64
		var h model.Holder
		if err := holderRows.Scan(&keyID, &h.Type, &h.Name, &h.Quantity); err != nil {
			return nil, fmt.Errorf("scanning key holder: %w", err)
		}
		if i, ok := byID[keyID]; ok {
			keys[i].Holders = append(keys[i].Holders, h)
		}
	}
	return keys, holderRows.Err()
}

// DeleteKey soft-deletes a key.
func DeleteKey(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE keys SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	return nil
}

// RegisterKeyStock registers copies of a key in a lockbox, creating the key
// record on first registration and topping up the lockbox holder otherwise.
func RegisterKeyStock(ctx context.Context, db *sql.DB, keyName, lockboxName string, quantity int) (*model.Key, error) {
	keyName = trimmed(keyName)
	lockboxName = trimmed(lockboxName)
	if keyName == "" {
		return nil, model.Validationf("key_name", "required")
	}
	if lockboxName == "" {
		return nil, model.Validationf("lockbox", "required")
	}
	if quantity < 1 {
		return nil, model.Validationf("quantity", "must be at least 1")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	keyID, err := findKeyIDTx(ctx, tx, keyName)
	if err != nil {
		return nil, err
	}
	if keyID == 0 {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO keys (name, restricted) VALUES (?, 0)`, keyName,
		)
		if err != nil {
			return nil, fmt.Errorf("creating key: %w", err)
		}
		keyID, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting key id: %w", err)
		}
	}

	if err := upsertHolder(ctx, tx, keyID, model.HolderLockbox, lockboxName, quantity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing key registration: %w", err)
	}

	return GetKey(ctx, db, keyID)
}

// TransferKeyCustody moves quantity of a key between a lockbox and a person.
// "Signing Out" moves lockbox to person, "Signing In" the reverse. The
// source holder must exist and hold at least the requested quantity; a
// holder drained to zero is removed. The custody log entry is appended
// after the state commit: a failed log write never rolls back a completed
// transfer, since the physical handover already happened.
func TransferKeyCustody(ctx context.Context, db *sql.DB, keyName, action, person, lockbox string, quantity int, actingUser string) (*model.Key, error) {
	keyName = trimmed(keyName)
	person = trimmed(person)
	lockbox = trimmed(lockbox)
	if keyName == "" {
		return nil, model.Validationf("key_name", "required")
	}
	if person == "" {
		return nil, model.Validationf("person", "required")
	}
	if lockbox == "" {
		return nil, model.Validationf("lockbox", "required")
	}
	if quantity < 1 {
		return nil, model.Validationf("quantity", "must be at least 1")
	}
	if action != model.ActionSigningOut && action != model.ActionSigningIn {
		return nil, model.Validationf("action", "must be %q or %q", model.ActionSigningOut, model.ActionSigningIn)
	}

	var srcType, srcName, dstType, dstName string
	if action == model.ActionSigningOut {
		srcType, srcName = model.HolderLockbox, lockbox
		dstType, dstName = model.HolderPerson, person
	} else {
		srcType, srcName = model.HolderPerson, person
		dstType, dstName = model.HolderLockbox, lockbox
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	keyID, err := findKeyIDTx(ctx, tx, keyName)
	if err != nil {
		return nil, err
	}
	if keyID == 0 {
		return nil, model.ErrKeyNotFound
	}

	// Conservation guard: custody can only move from a holder that
	// actually holds that much.
	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM key_holders
		 WHERE key_id = ? AND holder_type = ? AND holder_name = ?`,
		keyID, srcType, srcName,
	).Scan(&available)
	if err == sql.ErrNoRows {
		available = 0
	} else if err != nil {
		return nil, fmt.Errorf("checking source holder: %w", err)
	}
	if available < quantity {
		return nil, &model.InsufficientQuantityError{Holder: srcName, Have: available, Want: quantity}
	}

	if available == quantity {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM key_holders WHERE key_id = ? AND holder_type = ? AND holder_name = ?`,
			keyID, srcType, srcName,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE key_holders SET quantity = quantity - ?
			 WHERE key_id = ? AND holder_type = ? AND holder_name = ?`,
			quantity, keyID, srcType, srcName,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("updating source holder: %w", err)
	}

	if err := upsertHolder(ctx, tx, keyID, dstType, dstName, quantity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing custody transfer: %w", err)
	}

	// Best-effort audit append, outside the committed state change.
	if actingUser == "" {
		actingUser = "Unknown"
	}
	entry := model.KeyLogEntry{
		KeyName:     keyName,
		Action:      action,
		Person:      person,
		Lockbox:     lockbox,
		Quantity:    quantity,
		SubmittedBy: actingUser,
	}
	if err := InsertKeyLog(ctx, db, entry); err != nil {
		slog.Error("custody log write failed after committed transfer",
			"key", keyName, "action", action, "error", err)
	}

	return GetKey(ctx, db, keyID)
}

// ConsolidateLegacyKeys merges duplicate non-restricted key rows whose
// trimmed names match case-insensitively. Legacy imports carried one row
// per physical unit; after consolidation one row per distinct name remains,
// its holders merged by (type, name) with quantities summed. Runs as a
// single transaction over a snapshot; concurrent writers are not guarded
// beyond that.
func ConsolidateLegacyKeys(ctx context.Context, db *sql.DB) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, name FROM keys
		 WHERE restricted = 0 AND deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return 0, fmt.Errorf("listing keys: %w", err)
	}

	type keyRow struct {
		id   int64
		name string
	}
	groups := map[string][]keyRow{}
	var order []string
	for rows.Next() {
		var k keyRow
		if err := rows.Scan(&k.id, &k.name); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning key: %w", err)
		}
		norm := model.NormalizeName(k.name)
		if _, seen := groups[norm]; !seen {
			order = append(order, norm)
		}
		groups[norm] = append(groups[norm], k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	merged := 0
	for _, norm := range order {
		group := groups[norm]
		if len(group) < 2 {
			continue
		}

		survivor := group[0]
		for _, dup := range group[1:] {
			holders, err := getKeyHoldersTx(ctx, tx, dup.id)
			if err != nil {
				return 0, err
			}
			for _, h := range holders {
				if err := upsertHolder(ctx, tx, survivor.id, h.Type, trimmed(h.Name), h.Quantity); err != nil {
					return 0, err
				}
			}
			// Hard delete: the duplicate was never a real key, just a
			// legacy per-unit row. Holder rows go with it via cascade.
			if _, err := tx.ExecContext(ctx, `DELETE FROM keys WHERE id = ?`, dup.id); err != nil {
				return 0, fmt.Errorf("deleting duplicate key: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE keys SET name = ? WHERE id = ?`, trimmed(survivor.name), survivor.id,
		); err != nil {
			return 0, fmt.Errorf("normalizing key name: %w", err)
		}
		merged++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing consolidation: %w", err)
	}
	return merged, nil
}

// findKeyID looks up a non-restricted, non-deleted key by case-insensitive
// name. Returns 0 when no such key exists.
func findKeyID(ctx context.Context, db *sql.DB, name string) (int64, error) {
	return findKey(ctx, db.QueryRowContext, name)
}

func findKeyIDTx(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	return findKey(ctx, tx.QueryRowContext, name)
}

type queryRowFunc func(ctx context.Context, query string, args ...any) *sql.Row

func findKey(ctx context.Context, queryRow queryRowFunc, name string) (int64, error) {
	var id int64
	err := queryRow(ctx,
		`SELECT id FROM keys
		 WHERE restricted = 0 AND deleted_at IS NULL AND name = ? COLLATE NOCASE
		 ORDER BY id LIMIT 1`,
		name,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("finding key: %w", err)
	}
	return id, nil
}

// upsertHolder increments a holder's quantity, creating the row if needed.
// The holder_name column is COLLATE NOCASE, so differently-cased names for
// the same holder merge into one row.
func upsertHolder(ctx context.Context, tx *sql.Tx, keyID int64, holderType, holderName string, quantity int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO key_holders (key_id, holder_type, holder_name, quantity)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (key_id, holder_type, holder_name)
		 DO UPDATE SET quantity = quantity + excluded.quantity`,
		keyID, holderType, holderName, quantity,
	)
	if err != nil {
		return fmt.Errorf("updating holder %s/%s: %w", holderType, holderName, err)
	}
	return nil
}

func getKeyHolders(ctx context.Context, db *sql.DB, keyID int64) ([]model.Holder, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT holder_type, holder_name, quantity FROM key_holders
		 WHERE key_id = ? ORDER BY holder_type, holder_name`, keyID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting key holders: %w", err)
	}
	defer rows.Close()
	return scanHolders(rows)
}

func getKeyHoldersTx(ctx context.Context, tx *sql.Tx, keyID int64) ([]model.Holder, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT holder_type, holder_name, quantity FROM key_holders
		 WHERE key_id = ? ORDER BY holder_type, holder_name`, keyID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting key holders: %w", err)
	}
	defer rows.Close()
	return scanHolders(rows)
}

func scanHolders(rows *sql.Rows) ([]model.Holder, error) {
	var holders []model.Holder
	for rows.Next() {
		var h model.Holder
		if err := rows.Scan(&h.Type, &h.Name, &h.Quantity); err != nil {
			return nil, fmt.Errorf("scanning holder: %w", err)
		}
		holders = append(holders, h)
	}
	return holders, rows.Err()
}

// trimmed is the input-side half of name normalization: stored names keep
// their display casing but never leading/trailing whitespace.
func trimmed(s string) string {
	return strings.TrimSpace(s)
}
