package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/comedy-tour-seating/internal/model"
)

// InventoryRepo reads and writes the seating chart of each show.
type InventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

// ListByShow returns the chart of showID in chart order.
func (r *InventoryRepo) ListByShow(ctx context.Context, showID uint64) ([]model.InventoryItem, error) {
	const q = `SELECT item_id, category, display_name, availability
	           FROM inventory_items WHERE show_id = ? ORDER BY sort_order, item_id`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.InventoryItem
	for rows.Next() {
		var it model.InventoryItem
		if err := rows.Scan(&it.ID, &it.Category, &it.DisplayName, &it.Availability); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ReplaceShowTx swaps the whole chart of showID for items.  Items already
// sold through an order stay taken.
func (r *InventoryRepo) ReplaceShowTx(ctx context.Context, tx *sql.Tx, showID uint64, items []model.InventoryItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE show_id = ?`, showID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO inventory_items (show_id, item_id, category, display_name, availability, sort_order) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, showID, it.ID, it.Category, it.DisplayName, it.Availability, i); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `UPDATE inventory_items i
	    JOIN order_items o ON o.show_id = i.show_id AND o.item_id = i.item_id
	    SET i.availability = 'taken'
	    WHERE i.show_id = ?`, showID)
	return err
}

// SetAvailability marks one item of showID.  It returns ErrNotFound when
// the item is not on the chart.
func (r *InventoryRepo) SetAvailability(ctx context.Context, showID uint64, itemID string, a model.Availability) error {
	res, err := r.db.ExecContext(ctx, `UPDATE inventory_items SET availability = ? WHERE show_id = ? AND item_id = ?`, a, showID, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows when the value is unchanged.
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM inventory_items WHERE show_id = ? AND item_id = ?`, showID, itemID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}
