package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/partysnap/partyhub/libs/db"
	"github.com/partysnap/partyhub/services/availability-service/internal/availability"
)

var ErrNotFound = errors.New("not found")

// Supplier is a marketplace listing. Several listings of one business can share a single
// calendar; OwnerID names the supplier whose record they all read.
type Supplier struct {
	ID       string
	Category string
	OwnerID  string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *Repository) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `
		SELECT id, COALESCE(category, ''), COALESCE(primary_supplier_id, id)
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Category, &s.OwnerID)
	if db.IsNoRows(err) {
		return Supplier{}, ErrNotFound
	}
	return s, err
}

// GetRecord returns the raw stored availability JSON for a calendar owner.
func (r *Repository) GetRecord(ctx context.Context, ownerID string) ([]byte, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT record
		FROM supplier_availability
		WHERE supplier_id = $1
	`, ownerID).Scan(&raw)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return raw, err
}

func (r *Repository) UpsertRecord(ctx context.Context, tx pgx.Tx, ownerID string, raw []byte) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO supplier_availability (supplier_id, record, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (supplier_id) DO UPDATE
		SET record = EXCLUDED.record,
			updated_at = now()
	`, ownerID, raw)
	return err
}

// ListCalendarSupplierIDs returns every supplier that reads ownerID's calendar, the owner
// included.
func (r *Repository) ListCalendarSupplierIDs(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM suppliers
		WHERE id = $1 OR primary_supplier_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ListOrders loads live orders for the given suppliers whose party or delivery date falls
// in [from, to]. Party dates are widened by two days since delivery precedes the party.
func (r *Repository) ListOrders(ctx context.Context, supplierIDs []string, from, to availability.Date) ([]availability.Order, error) {
	if len(supplierIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, supplier_id, party_date, delivery_date
		FROM supplier_orders
		WHERE supplier_id = ANY($1)
		  AND status <> 'cancelled'
		  AND (
			(party_date BETWEEN $2 AND $3::date + 2)
			OR (delivery_date BETWEEN $2 AND $3)
		  )
		ORDER BY COALESCE(delivery_date, party_date), id
	`, supplierIDs, from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []availability.Order
	for rows.Next() {
		var (
			o        availability.Order
			party    *time.Time
			delivery *time.Time
		)
		if err := rows.Scan(&o.ID, &o.SupplierID, &party, &delivery); err != nil {
			return nil, err
		}
		if party != nil {
			o.PartyDate = availability.DateOf(*party)
		}
		if delivery != nil {
			o.DeliveryDate = availability.DateOf(*delivery)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
