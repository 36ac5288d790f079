package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/comedy-tour-seating/internal/model"
)

// TicketTypeRepo reads and writes the ticket types sold on the tour.
type TicketTypeRepo struct {
	db *sql.DB
}

func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo {
	return &TicketTypeRepo{db: db}
}

// List returns ticket types in display order.
func (r *TicketTypeRepo) List(ctx context.Context) ([]model.TicketType, error) {
	const q = `SELECT code, name, description, unit_price_cents, capacity_per_unit, pricing, available
	           FROM ticket_types ORDER BY sort_order, code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TicketType
	for rows.Next() {
		var tt model.TicketType
		if err := rows.Scan(&tt.Code, &tt.Name, &tt.Description, &tt.UnitPrice, &tt.CapacityPerUnit, &tt.Pricing, &tt.Available); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

// UpsertTx writes tt at position order.
func (r *TicketTypeRepo) UpsertTx(ctx context.Context, tx *sql.Tx, tt model.TicketType, order int) error {
	const q = `INSERT INTO ticket_types (code, name, description, unit_price_cents, capacity_per_unit, pricing, available, sort_order)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE name = VALUES(name), description = VALUES(description),
	             unit_price_cents = VALUES(unit_price_cents), capacity_per_unit = VALUES(capacity_per_unit),
	             pricing = VALUES(pricing), available = VALUES(available), sort_order = VALUES(sort_order)`
	_, err := tx.ExecContext(ctx, q, tt.Code, tt.Name, tt.Description, int64(tt.UnitPrice), tt.CapacityPerUnit, tt.Pricing, tt.Available, order)
	return err
}
