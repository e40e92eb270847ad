package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/unklstewy/skyframe/internal/slideshow"
)

// PhotoRepository handles database operations for slideshow photos.
type PhotoRepository struct {
	db *DB
}

// NewPhotoRepository creates a new photo repository.
func NewPhotoRepository(db *DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// PhotoRecord is a stored photo with its admin-editable metadata.
type PhotoRecord struct {
	ID        string
	Src       string
	Caption   string
	Location  string
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slideshow converts the record into the read-only shape the display uses.
func (p PhotoRecord) Slideshow() slideshow.Photo {
	return slideshow.Photo{
		ID:      p.ID,
		Src:     p.Src,
		Caption: p.Caption,
	}
}

// List returns all photos in display order.
func (r *PhotoRepository) List(ctx context.Context) ([]PhotoRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, src, caption, location, sort_order, created_at, updated_at
		 FROM photos
		 ORDER BY sort_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []PhotoRecord
	for rows.Next() {
		var p PhotoRecord
		if err := rows.Scan(&p.ID, &p.Src, &p.Caption, &p.Location,
			&p.SortOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}

	return photos, rows.Err()
}

// Get returns one photo by id, or nil when it does not exist.
func (r *PhotoRepository) Get(ctx context.Context, id string) (*PhotoRecord, error) {
	var p PhotoRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, src, caption, location, sort_order, created_at, updated_at
		 FROM photos
		 WHERE id = $1`, id,
	).Scan(&p.ID, &p.Src, &p.Caption, &p.Location, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &p, nil
}

// Upsert inserts or updates a photo's metadata.
func (r *PhotoRepository) Upsert(ctx context.Context, p PhotoRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO photos (id, src, caption, location, sort_order)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   src = EXCLUDED.src,
		   caption = EXCLUDED.caption,
		   location = EXCLUDED.location,
		   sort_order = EXCLUDED.sort_order,
		   updated_at = now()`,
		p.ID, p.Src, p.Caption, p.Location, p.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to upsert photo: %w", err)
	}
	return nil
}

// Delete removes a photo by id.
func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

// DisplaySettings is the single-row settings object consumed read-only by
// the display.
type DisplaySettings struct {
	IntervalMs int
	Shuffle    bool
	FitMode    string
}

// GetSettings returns the display settings row.
func (r *PhotoRepository) GetSettings(ctx context.Context) (*DisplaySettings, error) {
	var s DisplaySettings
	err := r.db.QueryRowContext(ctx,
		`SELECT interval_ms, shuffle, fit_mode FROM display_settings WHERE id = TRUE`,
	).Scan(&s.IntervalMs, &s.Shuffle, &s.FitMode)
	if err != nil {
		return nil, fmt.Errorf("failed to get display settings: %w", err)
	}
	return &s, nil
}

// UpdateSettings replaces the display settings row.
func (r *PhotoRepository) UpdateSettings(ctx context.Context, s DisplaySettings) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE display_settings
		 SET interval_ms = $1, shuffle = $2, fit_mode = $3, updated_at = now()
		 WHERE id = TRUE`,
		s.IntervalMs, s.Shuffle, s.FitMode)
	if err != nil {
		return fmt.Errorf("failed to update display settings: %w", err)
	}
	return nil
}
