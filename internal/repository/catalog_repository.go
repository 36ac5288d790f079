package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/model"
)

// CatalogRepo is the MySQL catalog.Provider.
type CatalogRepo struct {
	db        *sql.DB
	shows     *ShowRepo
	types     *TicketTypeRepo
	inventory *InventoryRepo
}

// NewCatalogRepo builds the provider over db.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{
		db:        db,
		shows:     NewShowRepo(db),
		types:     NewTicketTypeRepo(db),
		inventory: NewInventoryRepo(db),
	}
}

// Inventory exposes the inventory repository for availability updates.
func (r *CatalogRepo) Inventory() *InventoryRepo { return r.inventory }

func (r *CatalogRepo) Shows(ctx context.Context) ([]model.Show, error) {
	return r.shows.List(ctx)
}

func (r *CatalogRepo) Show(ctx context.Context, id uint64) (model.Show, error) {
	s, err := r.shows.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return model.Show{}, catalog.ErrShowNotFound
	}
	return s, err
}

func (r *CatalogRepo) Catalog(ctx context.Context, showID uint64) (*catalog.Catalog, error) {
	show, err := r.Show(ctx, showID)
	if err != nil {
		return nil, err
	}
	types, err := r.types.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ticket types: %w", err)
	}
	items, err := r.inventory.ListByShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("list inventory of show %d: %w", showID, err)
	}
	return catalog.New(show, types, items)
}

// Seed copies every show of src, with its ticket types and chart, into
// the database in one transaction.  Existing rows are overwritten.
func (r *CatalogRepo) Seed(ctx context.Context, src catalog.Provider) (err error) {
	shows, err := src.Shows(ctx)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	typesDone := false
	for _, s := range shows {
		cat, err := src.Catalog(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("seed show %d: %w", s.ID, err)
		}
		if !typesDone {
			for i, tt := range cat.TicketTypes() {
				if err := r.types.UpsertTx(ctx, tx, tt, i); err != nil {
					return fmt.Errorf("seed ticket type %s: %w", tt.Code, err)
				}
			}
			typesDone = true
		}
		if err := r.shows.UpsertTx(ctx, tx, s); err != nil {
			return fmt.Errorf("seed show %d: %w", s.ID, err)
		}
		if err := r.inventory.ReplaceShowTx(ctx, tx, s.ID, cat.Inventory()); err != nil {
			return fmt.Errorf("seed inventory of show %d: %w", s.ID, err)
		}
	}
	return tx.Commit()
}
