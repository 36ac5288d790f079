package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/checkout"
	"github.com/iliyamo/comedy-tour-seating/internal/model"
	"github.com/iliyamo/comedy-tour-seating/internal/money"
	"github.com/iliyamo/comedy-tour-seating/internal/selection"
)

// OrderRepo records confirmed orders and claims their items so the same
// seat cannot be sold twice.
type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// OrderRecord is a stored order header.
type OrderRecord struct {
	ID            string
	OrderNumber   string
	ShowID        uint64
	CustomerName  string
	CustomerEmail string
	SubtotalCents int64
	FeesCents     int64
	TotalCents    int64
	FeeRateBps    int64
	ConfirmedAt   time.Time
}

// SaveOrder locks the order's items, fails with selection.ErrItemUnavailable
// if any is already taken, marks them taken and writes the order, all in
// one transaction.
func (r *OrderRepo) SaveOrder(ctx context.Context, c *checkout.Confirmation) (err error) {
	showID := c.Order.Show.ID
	ids := make([]string, len(c.Order.Entries))
	for i, e := range c.Order.Entries {
		ids[i] = e.ID
	}
	if len(ids) == 0 {
		return checkout.ErrEmptySelection
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := claimItemsTx(ctx, tx, showID, ids); err != nil {
		return err
	}

	sum := c.Order.Summary
	const q = `INSERT INTO orders (id, order_number, show_id, customer_name, customer_email,
	             subtotal_cents, fees_cents, total_cents, fee_rate_bps, confirmed_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, c.OrderID, c.OrderNumber, showID, c.Customer.Name, c.Customer.Email,
		int64(sum.Subtotal), int64(sum.Fees), int64(sum.Total), int64(sum.FeeRate), c.ConfirmedAt.UTC()); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	query := `INSERT INTO order_items (order_id, show_id, item_id, category, position) VALUES `
	args := make([]any, 0, len(c.Order.Entries)*5)
	for i, e := range c.Order.Entries {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, c.OrderID, showID, e.ID, e.Category, i)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func claimItemsTx(ctx context.Context, tx *sql.Tx, showID uint64, ids []string) error {
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, showID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT item_id, availability FROM inventory_items WHERE show_id = ? AND item_id IN (`+marks+`) FOR UPDATE`, args...)
	if err != nil {
		return err
	}
	found := make(map[string]model.Availability, len(ids))
	for rows.Next() {
		var id string
		var a model.Availability
		if err := rows.Scan(&id, &a); err != nil {
			rows.Close()
			return err
		}
		found[id] = a
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		a, ok := found[id]
		if !ok {
			return fmt.Errorf("%w: %s", catalog.ErrUnknownItem, id)
		}
		if a == model.Taken {
			return fmt.Errorf("%w: %s", selection.ErrItemUnavailable, id)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE inventory_items SET availability = 'taken' WHERE show_id = ? AND item_id IN (`+marks+`)`, args...); err != nil {
		return fmt.Errorf("claim items: %w", err)
	}
	return nil
}

// Order implements checkout.OrderStore.
func (r *OrderRepo) Order(ctx context.Context, orderID string) (*checkout.StoredOrder, error) {
	rec, items, err := r.Get(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return nil, checkout.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &checkout.StoredOrder{
		OrderID:     rec.ID,
		OrderNumber: rec.OrderNumber,
		ShowID:      rec.ShowID,
		Customer:    checkout.Customer{Name: rec.CustomerName, Email: rec.CustomerEmail},
		Seats:       items,
		Subtotal:    money.Cents(rec.SubtotalCents),
		Fees:        money.Cents(rec.FeesCents),
		FeeRate:     money.Rate(rec.FeeRateBps),
		Total:       money.Cents(rec.TotalCents),
		ConfirmedAt: rec.ConfirmedAt,
	}, nil
}

// Get returns an order header and its item ids in selection order.
func (r *OrderRepo) Get(ctx context.Context, orderID string) (*OrderRecord, []string, error) {
	const q = `SELECT id, order_number, show_id, customer_name, customer_email,
	                  subtotal_cents, fees_cents, total_cents, fee_rate_bps, confirmed_at
	           FROM orders WHERE id = ?`
	var o OrderRecord
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(&o.ID, &o.OrderNumber, &o.ShowID, &o.CustomerName, &o.CustomerEmail,
		&o.SubtotalCents, &o.FeesCents, &o.TotalCents, &o.FeeRateBps, &o.ConfirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT item_id FROM order_items WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, nil, err
		}
		items = append(items, id)
	}
	return &o, items, rows.Err()
}
