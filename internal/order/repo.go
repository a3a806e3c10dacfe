package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrFinal is returned when an order already left Pending.
	ErrFinal = errors.New("order status is final")
)

type Repository interface {
	// Create writes the global record and, for an owned order, the owner's
	// private copy in one transaction. It fills CreatedAt.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListAll(ctx context.Context, limit int) ([]Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// UpdateStatus moves a Pending order to status in both copies. It returns
	// ErrFinal when the order is no longer Pending.
	UpdateStatus(ctx context.Context, id, owner string, status Status, pickupTime *string) error
	Count(ctx context.Context) (total, pending int, err error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderCols = `id, user_id, customer, items, total::text, status, pickup_time, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*Order, error) {
	var (
		o               Order
		customer, items []byte
		total           string
		status          string
	)
	if err := row.Scan(&o.ID, &o.UserID, &customer, &items, &total, &status, &o.PickupTime, &o.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("order %s customer: %w", o.ID, err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("order %s items: %w", o.ID, err)
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return nil, err
	}
	o.Total = d
	o.Status = Status(status)
	return &o, nil
}

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
    INSERT INTO orders (id, user_id, customer, items, total, status, pickup_time, created_at)
    VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,NOW())
    RETURNING created_at
  `, o.ID, o.UserID, customer, items, o.Total.StringFixed(2), string(o.Status), o.PickupTime).Scan(&o.CreatedAt); err != nil {
		return err
	}

	if !o.Guest() {
		if _, err := tx.Exec(ctx, `
      INSERT INTO user_orders (id, user_id, customer, items, total, status, pickup_time, created_at)
      VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8)
    `, o.ID, o.UserID, customer, items, o.Total.StringFixed(2), string(o.Status), o.PickupTime, o.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Get(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (r *PGRepo) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// ListAll returns orders newest first. limit <= 0 means no limit.
func (r *PGRepo) ListAll(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		return r.list(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
	}
	return r.list(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
}

// ListByUser reads the user's private copies, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM user_orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id, owner string, status Status, pickupTime *string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE orders
    SET status = $2, pickup_time = COALESCE($3, pickup_time)
    WHERE id = $1 AND status = 'Pending'
  `, id, string(status), pickupTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrFinal
	}

	if owner != "" && owner != GuestOwner {
		if _, err := tx.Exec(ctx, `
      UPDATE user_orders
      SET status = $3, pickup_time = COALESCE($4, pickup_time)
      WHERE id = $1 AND user_id = $2
    `, id, owner, string(status), pickupTime); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Count(ctx context.Context) (total, pending int, err error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = r.db.QueryRow(ctx, `
    SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'Pending') FROM orders
  `).Scan(&total, &pending)
	return total, pending, err
}
