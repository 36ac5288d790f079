package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/comedy-tour-seating/internal/model"
)

// ShowRepo manages persistence for tour dates.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

const showColumns = `id, starts_at, city, venue, address, status, COALESCE(description, ''), COALESCE(policies, ''), duration`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShow(row rowScanner) (model.Show, error) {
	var s model.Show
	err := row.Scan(&s.ID, &s.StartsAt, &s.City, &s.Venue, &s.Address, &s.Status, &s.Description, &s.Policies, &s.Duration)
	return s, err
}

// List returns every show ordered by start time.
func (r *ShowRepo) List(ctx context.Context) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+showColumns+` FROM shows ORDER BY starts_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns one show or ErrNotFound.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (model.Show, error) {
	s, err := scanShow(r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Show{}, ErrNotFound
	}
	return s, err
}

// UpsertTx writes s under its id inside tx.
func (r *ShowRepo) UpsertTx(ctx context.Context, tx *sql.Tx, s model.Show) error {
	const q = `INSERT INTO shows (id, starts_at, city, venue, address, status, description, policies, duration)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE starts_at = VALUES(starts_at), city = VALUES(city), venue = VALUES(venue),
	             address = VALUES(address), status = VALUES(status), description = VALUES(description),
	             policies = VALUES(policies), duration = VALUES(duration)`
	_, err := tx.ExecContext(ctx, q, s.ID, s.StartsAt.UTC(), s.City, s.Venue, s.Address, s.Status, s.Description, s.Policies, s.Duration)
	return err
}
