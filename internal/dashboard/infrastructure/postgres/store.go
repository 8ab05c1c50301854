package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/doceeser/orders-dashboard/internal/dashboard/application"
	"github.com/doceeser/orders-dashboard/internal/orders/domain"
)

const orderColumns = `id::text, status, created_at, total::text, customer, items`

// Store reads and updates the shared order table. The id column is
// compared and returned as text because the front end writes numeric
// ids while the feed publishes them as strings.
type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{log: log, pool: pool}
}

func (s *Store) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", application.ErrStore, err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list scan: %v", application.ErrStore, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list rows: %v", application.ErrStore, err)
	}
	return orders, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Order, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE orders SET status=$2 WHERE id::text=$1 RETURNING `+orderColumns,
		id, string(status))

	o, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, updateStatusError(id, err)
	}
	s.log.Info("order status updated", "order_id", o.ID, "status", status)
	return o, nil
}

// updateStatusError keeps a missing row distinct from a store outage:
// an id that matches nothing is the caller's problem, not the
// database's.
func updateStatusError(id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %q", application.ErrOrderNotFound, id)
	}
	return fmt.Errorf("%w: update status: %v", application.ErrStore, err)
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o        domain.Order
		status   string
		created  time.Time
		total    *string
		customer []byte
		items    []byte
	)
	if err := row.Scan(&o.ID, &status, &created, &total, &customer, &items); err != nil {
		return domain.Order{}, err
	}

	o.ID = domain.NormalizeID(o.ID)
	o.Status = domain.Status(status)
	o.CreatedAt = created
	if total != nil {
		if d, err := decimal.NewFromString(*total); err == nil && !d.IsNegative() {
			o.Total = d
		}
	}
	if len(customer) > 0 {
		// malformed JSONB leaves the customer empty rather than
		// failing the row
		_ = json.Unmarshal(customer, &o.Customer)
	}
	if len(items) > 0 {
		_ = json.Unmarshal(items, &o.Items)
	}
	return o, nil
}
