package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ztrcek/hisnik/internal/model"
)

// CreateAsset creates a new asset.
func CreateAsset(ctx context.Context, db *sql.DB, name, location, description string) (*model.Asset, error) {
	name = trimmed(name)
	if name == "" {
		return nil, model.Validationf("name", "required")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO assets (name, location, description) VALUES (?, ?, ?)`,
		name, location, description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting asset id: %w", err)
	}

	return GetAsset(ctx, db, id)
}

// GetAsset returns an asset by ID.
func GetAsset(ctx context.Context, db *sql.DB, id int64) (*model.Asset, error) {
	a := &model.Asset{}
	var location, description, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, location, description, image_mime, created_at, updated_at, deleted_at
		 FROM assets WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &location, &description, &imageMime, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	a.Location = location.String
	a.Description = description.String
	a.ImageMime = imageMime.String
	return a, nil
}

// ListAssets returns all non-deleted assets.
func ListAssets(ctx context.Context, db *sql.DB) ([]model.Asset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, location, description, image_mime, created_at, updated_at, deleted_at
		 FROM assets WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		var a model.Asset
		var location, description, imageMime sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &location, &description, &imageMime, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		a.Location = location.String
		a.Description = description.String
		a.ImageMime = imageMime.String
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// UpdateAsset updates an asset's metadata.
func UpdateAsset(ctx context.Context, db *sql.DB, id int64, name, location, description string) error {
	name = trimmed(name)
	if name == "" {
		return model.Validationf("name", "required")
	}
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET name = ?, location = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, location, description, id,
	)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	return nil
}

// DeleteAsset soft-deletes an asset.
func DeleteAsset(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}

// SetAssetImage stores an asset's photo.
func SetAssetImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting asset image: %w", err)
	}
	return nil
}

// GetAssetImage returns an asset's photo data and MIME type. Both are
// empty when no photo is stored.
func GetAssetImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM assets WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting asset image: %w", err)
	}
	return data, mime.String, nil
}
