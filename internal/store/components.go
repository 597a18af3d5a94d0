package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ztrcek/hisnik/internal/model"
	"github.com/ztrcek/hisnik/internal/schedule"
)

// CreateComponent creates an inspectable component under an asset. The
// frequency is normalized on the way in; unrecognized values fall back to
// annual inspection.
func CreateComponent(ctx context.Context, db *sql.DB, assetID int64, name, frequency string) (*model.Component, error) {
	name = trimmed(name)
	if name == "" {
		return nil, model.Validationf("name", "required")
	}

	asset, err := GetAsset(ctx, db, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil || asset.DeletedAt != nil {
		return nil, model.Validationf("asset_id", "asset %d does not exist", assetID)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO components (asset_id, name, frequency) VALUES (?, ?, ?)`,
		assetID, name, schedule.NormalizeFrequency(frequency),
	)
	if err != nil {
		return nil, fmt.Errorf("creating component: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting component id: %w", err)
	}

	return GetComponent(ctx, db, id)
}

// GetComponent returns a component by ID.
func GetComponent(ctx context.Context, db *sql.DB, id int64) (*model.Component, error) {
	c := &model.Component{}
	err := db.QueryRowContext(ctx,
		`SELECT c.id, c.asset_id, c.name, c.frequency, c.last_checked, c.next_due, c.status, a.name
		 FROM components c
		 JOIN assets a ON a.id = c.asset_id
		 WHERE c.id = ?`, id,
	).Scan(&c.ID, &c.AssetID, &c.Name, &c.Frequency, &c.LastChecked, &c.NextDue, &c.Status, &c.AssetName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting component: %w", err)
	}
	return c, nil
}

// ListComponents returns components, optionally limited to one asset.
func ListComponents(ctx context.Context, db *sql.DB, assetID int64) ([]model.Component, error) {
	query := `SELECT c.id, c.asset_id, c.name, c.frequency, c.last_checked, c.next_due, c.status, a.name
	          FROM components c
	          JOIN assets a ON a.id = c.asset_id
	          WHERE a.deleted_at IS NULL`
	var args []any
	if assetID > 0 {
		query += ` AND c.asset_id = ?`
		args = append(args, assetID)
	}
	query += ` ORDER BY a.name, c.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing components: %w", err)
	}
	defer rows.Close()

	var components []model.Component
	for rows.Next() {
		var c model.Component
		if err := rows.Scan(&c.ID, &c.AssetID, &c.Name, &c.Frequency, &c.LastChecked, &c.NextDue, &c.Status, &c.AssetName); err != nil {
			return nil, fmt.Errorf("scanning component: %w", err)
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

// UpdateComponent updates a component's name and frequency. A frequency
// change takes effect from the next logged inspection; the stored next_due
// is not recomputed retroactively.
func UpdateComponent(ctx context.Context, db *sql.DB, id int64, name, frequency string) error {
	name = trimmed(name)
	if name == "" {
		return model.Validationf("name", "required")
	}
	_, err := db.ExecContext(ctx,
		`UPDATE components SET name = ?, frequency = ? WHERE id = ?`,
		name, schedule.NormalizeFrequency(frequency), id,
	)
	if err != nil {
		return fmt.Errorf("updating component: %w", err)
	}
	return nil
}

// DeleteComponent removes a component and its inspection history.
func DeleteComponent(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inspections WHERE component_id = ?`, id); err != nil {
		return fmt.Errorf("deleting component inspections: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM components WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting component: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing component deletion: %w", err)
	}
	return nil
}

// RecordInspection logs an inspection of a component: the component's
// last-checked, next-due and status fields are updated and an immutable
// inspection record is written, in one transaction. Next due is computed
// from the component's stored frequency and the inspection time.
func RecordInspection(ctx context.Context, db *sql.DB, componentID int64, status, notes, inspector string) (*model.Component, error) {
	if inspector = trimmed(inspector); inspector == "" {
		inspector = "Unknown"
	}

	now := time.Now().UTC()
	normStatus := schedule.NormalizeStatus(status)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var assetID int64
	var frequency string
	err = tx.QueryRowContext(ctx,
		`SELECT asset_id, frequency FROM components WHERE id = ?`, componentID,
	).Scan(&assetID, &frequency)
	if err == sql.ErrNoRows {
		return nil, model.ErrComponentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading component: %w", err)
	}

	frequency = schedule.NormalizeFrequency(frequency)
	nextDue := schedule.NextDue(frequency, now)

	_, err = tx.ExecContext(ctx,
		`UPDATE components SET last_checked = ?, next_due = ?, status = ? WHERE id = ?`,
		now, nextDue, normStatus, componentID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating component schedule: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO inspections (component_id, asset_id, inspected_at, inspector, status, notes, frequency)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		componentID, assetID, now, inspector, normStatus, notes, frequency,
	)
	if err != nil {
		return nil, fmt.Errorf("recording inspection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing inspection: %w", err)
	}

	return GetComponent(ctx, db, componentID)
}

// ListInspections returns inspection records newest first, optionally
// filtered by component or asset.
func ListInspections(ctx context.Context, db *sql.DB, componentID, assetID int64) ([]model.InspectionRecord, error) {
	query := `SELECT id, component_id, asset_id, inspected_at, inspector, status, notes, frequency
	          FROM inspections WHERE 1=1`
	var args []any
	if componentID > 0 {
		query += ` AND component_id = ?`
		args = append(args, componentID)
	}
	if assetID > 0 {
		query += ` AND asset_id = ?`
		args = append(args, assetID)
	}
	query += ` ORDER BY inspected_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inspections: %w", err)
	}
	defer rows.Close()

	var records []model.InspectionRecord
	for rows.Next() {
		var rec model.InspectionRecord
		var notes sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ComponentID, &rec.AssetID, &rec.InspectedAt, &rec.Inspector, &rec.Status, &notes, &rec.Frequency); err != nil {
			return nil, fmt.Errorf("scanning inspection: %w", err)
		}
		rec.Notes = notes.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DueStatus buckets all components by schedule urgency relative to now.
// Upcoming and recently-checked are independent windows, so a component
// can appear in both.
type DueStatus struct {
	Overdue  []model.Component `json:"overdue"`
	Upcoming []model.Component `json:"upcoming"`
	Recent   []model.Component `json:"recent"`
}

// ClassifyComponents loads all components and buckets them by due status.
func ClassifyComponents(ctx context.Context, db *sql.DB, now time.Time) (*DueStatus, error) {
	components, err := ListComponents(ctx, db, 0)
	if err != nil {
		return nil, err
	}

	ds := &DueStatus{
		Overdue:  []model.Component{},
		Upcoming: []model.Component{},
		Recent:   []model.Component{},
	}
	for _, c := range components {
		cls := schedule.Classify(c.LastChecked, c.NextDue, now)
		if cls.Overdue {
			ds.Overdue = append(ds.Overdue, c)
		}
		if cls.Upcoming {
			ds.Upcoming = append(ds.Upcoming, c)
		}
		if cls.Recent {
			ds.Recent = append(ds.Recent, c)
		}
	}
	return ds, nil
}
