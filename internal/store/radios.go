package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ztrcek/hisnik/internal/model"
)

// CreateRadio creates a radio in the available state.
func CreateRadio(ctx context.Context, db *sql.DB, callsign, radioNumber, serialNumber string) (*model.Radio, error) {
	callsign = trimmed(callsign)
	if callsign == "" {
		return nil, model.Validationf("callsign", "required")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO radios (callsign, radio_number, serial_number) VALUES (?, ?, ?)`,
		callsign, trimmed(radioNumber), trimmed(serialNumber),
	)
	if err != nil {
		return nil, fmt.Errorf("creating radio: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting radio id: %w", err)
	}

	return GetRadio(ctx, db, id)
}

// GetRadio returns a radio by ID.
func GetRadio(ctx context.Context, db *sql.DB, id int64) (*model.Radio, error) {
	rad := &model.Radio{}
	var assignedTo sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, callsign, radio_number, serial_number, status, assigned_to, assigned_at, created_at, deleted_at
		 FROM radios WHERE id = ?`, id,
	).Scan(&rad.ID, &rad.Callsign, &rad.RadioNumber, &rad.SerialNumber, &rad.Status,
		&assignedTo, &rad.AssignedAt, &rad.CreatedAt, &rad.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting radio: %w", err)
	}
	rad.AssignedTo = assignedTo.String
	return rad, nil
}

// ListRadios returns all non-deleted radios, optionally filtered by status.
func ListRadios(ctx context.Context, db *sql.DB, status string) ([]model.Radio, error) {
	query := `SELECT id, callsign, radio_number, serial_number, status, assigned_to, assigned_at, created_at, deleted_at
	          FROM radios WHERE deleted_at IS NULL`
	var args []any
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY callsign`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing radios: %w", err)
	}
	defer rows.Close()

	var radios []model.Radio
	for rows.Next() {
		var rad model.Radio
		var assignedTo sql.NullString
		if err := rows.Scan(&rad.ID, &rad.Callsign, &rad.RadioNumber, &rad.SerialNumber, &rad.Status,
			&assignedTo, &rad.AssignedAt, &rad.CreatedAt, &rad.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning radio: %w", err)
		}
		rad.AssignedTo = assignedTo.String
		radios = append(radios, rad)
	}
	return radios, rows.Err()
}

// DeleteRadio soft-deletes a radio. Assigned radios must be signed in first.
func DeleteRadio(ctx context.Context, db *sql.DB, id int64) error {
	rad, err := GetRadio(ctx, db, id)
	if err != nil {
		return err
	}
	if rad == nil {
		return model.ErrRadioNotFound
	}
	if rad.Status == model.RadioAssigned {
		return model.Validationf("status", "radio is assigned to %s; sign it in first", rad.AssignedTo)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE radios SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting radio: %w", err)
	}
	return nil
}

// SignOutRadio assigns an available radio to a person and opens an
// assignment history record, in one transaction. An earpiece accessory is
// only accepted together with a surveillance kit.
func SignOutRadio(ctx context.Context, db *sql.DB, radioID int64, personName string, accessories []string) (*model.RadioAssignment, error) {
	personName = trimmed(personName)
	if personName == "" {
		return nil, model.Validationf("person_name", "required")
	}
	if slices.Contains(accessories, model.AccessoryEarpiece) &&
		!slices.Contains(accessories, model.AccessorySurveillanceKit) {
		return nil, model.Validationf("accessories", "earpiece requires a surveillance kit")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM radios WHERE id = ? AND deleted_at IS NULL`, radioID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, model.ErrRadioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking radio status: %w", err)
	}
	if status != model.RadioAvailable {
		return nil, model.ErrRadioAssigned
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE radios SET status = ?, assigned_to = ?, assigned_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		model.RadioAssigned, personName, radioID,
	)
	if err != nil {
		return nil, fmt.Errorf("assigning radio: %w", err)
	}

	accessoriesJSON, err := encodeAccessories(accessories)
	if err != nil {
		return nil, err
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO radio_assignments (radio_id, person_name, accessories)
		 VALUES (?, ?, ?)`,
		radioID, personName, accessoriesJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("recording assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sign-out: %w", err)
	}

	assignmentID, _ := result.LastInsertId()
	return GetAssignment(ctx, db, assignmentID)
}

// SignInRadio returns an assigned radio to the pool and closes the open
// assignment record. A missing open assignment does not block the return:
// the radio is physically back either way, so the state still transitions
// and the bookkeeping gap is logged.
func SignInRadio(ctx context.Context, db *sql.DB, radioID int64) (*model.Radio, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM radios WHERE id = ? AND deleted_at IS NULL`, radioID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, model.ErrRadioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking radio status: %w", err)
	}
	if status != model.RadioAssigned {
		return nil, model.ErrRadioAvailable
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE radios SET status = ?, assigned_to = NULL, assigned_at = NULL WHERE id = ?`,
		model.RadioAvailable, radioID,
	)
	if err != nil {
		return nil, fmt.Errorf("returning radio: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE radio_assignments SET returned_at = CURRENT_TIMESTAMP
		 WHERE radio_id = ? AND returned_at IS NULL`,
		radioID,
	)
	if err != nil {
		return nil, fmt.Errorf("closing assignment: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		slog.Warn("radio signed in with no open assignment record", "radio_id", radioID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sign-in: %w", err)
	}

	return GetRadio(ctx, db, radioID)
}

// AddReplacementParts records parts fitted during an assignment. Purely
// additive audit data; the radio state machine is untouched.
func AddReplacementParts(ctx context.Context, db *sql.DB, assignmentID int64, parts []string) error {
	if len(parts) == 0 {
		return model.Validationf("parts", "at least one part required")
	}

	var exists int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM radio_assignments WHERE id = ?`, assignmentID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking assignment: %w", err)
	}
	if exists == 0 {
		return model.ErrAssignmentNotFound
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, part := range parts {
		part = trimmed(part)
		if part == "" {
			return model.Validationf("parts", "part name must not be empty")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO replacement_parts (assignment_id, part) VALUES (?, ?)`,
			assignmentID, part,
		); err != nil {
			return fmt.Errorf("recording replacement part: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replacement parts: %w", err)
	}
	return nil
}

// GetAssignment returns an assignment by ID with radio details and
// replacement parts joined.
func GetAssignment(ctx context.Context, db *sql.DB, id int64) (*model.RadioAssignment, error) {
	a := &model.RadioAssignment{}
	var accessoriesJSON sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT a.id, a.radio_id, r.callsign, r.radio_number, r.serial_number,
		        a.person_name, a.accessories, a.assigned_at, a.returned_at
		 FROM radio_assignments a
		 JOIN radios r ON r.id = a.radio_id
		 WHERE a.id = ?`, id,
	).Scan(&a.ID, &a.RadioID, &a.Callsign, &a.RadioNumber, &a.SerialNumber,
		&a.PersonName, &accessoriesJSON, &a.AssignedAt, &a.ReturnedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}

	if a.Accessories, err = decodeAccessories(accessoriesJSON); err != nil {
		return nil, err
	}
	if a.ReplacementParts, err = getReplacementParts(ctx, db, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAssignments returns assignment history newest first, optionally
// filtered by radio.
func ListAssignments(ctx context.Context, db *sql.DB, radioID int64) ([]model.RadioAssignment, error) {
	query := `SELECT a.id, a.radio_id, r.callsign, r.radio_number, r.serial_number,
	                 a.person_name, a.accessories, a.assigned_at, a.returned_at
	          FROM radio_assignments a
	          JOIN radios r ON r.id = a.radio_id`
	var args []any
	if radioID > 0 {
		query += ` WHERE a.radio_id = ?`
		args = append(args, radioID)
	}
	query += ` ORDER BY a.assigned_at DESC, a.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.RadioAssignment
	for rows.Next() {
		var a model.RadioAssignment
		var accessoriesJSON sql.NullString
		if err := rows.Scan(&a.ID, &a.RadioID, &a.Callsign, &a.RadioNumber, &a.SerialNumber,
			&a.PersonName, &accessoriesJSON, &a.AssignedAt, &a.ReturnedAt); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		if a.Accessories, err = decodeAccessories(accessoriesJSON); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func getReplacementParts(ctx context.Context, db *sql.DB, assignmentID int64) ([]model.ReplacementPart, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, assignment_id, part, added_at FROM replacement_parts
		 WHERE assignment_id = ? ORDER BY added_at, id`, assignmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting replacement parts: %w", err)
	}
	defer rows.Close()

	var parts []model.ReplacementPart
	for rows.Next() {
		var p model.ReplacementPart
		if err := rows.Scan(&p.ID, &p.AssignmentID, &p.Part, &p.AddedAt); err != nil {
			return nil, fmt.Errorf("scanning replacement part: %w", err)
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func encodeAccessories(accessories []string) (string, error) {
	if len(accessories) == 0 {
		return "", nil
	}
	data, err := json.Marshal(accessories)
	if err != nil {
		return "", fmt.Errorf("encoding accessories: %w", err)
	}
	return string(data), nil
}

func decodeAccessories(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var accessories []string
	if err := json.Unmarshal([]byte(raw.String), &accessories); err != nil {
		return nil, fmt.Errorf("decoding accessories: %w", err)
	}
	return accessories, nil
}
