package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the remote, per-user cart.
type Store interface {
	Load(ctx context.Context, uid string) (Quantities, error)
	Set(ctx context.Context, uid, productID string, qty int) error
	Delete(ctx context.Context, uid, productID string) error
	Clear(ctx context.Context, uid string) error
	// SetMany writes every entry of q in one atomic batch.
	SetMany(ctx context.Context, uid string, q Quantities) error
}

// GuestStore is the cart of a visitor without a session, kept client side.
type GuestStore interface {
	Load(ctx context.Context) (Quantities, error)
	Save(ctx context.Context, q Quantities) error
	Clear(ctx context.Context) error
}

// Path is the logical resource path of a user's cart, used in relayed errors.
func Path(uid string) string { return "users/" + uid + "/cart" }

func itemPath(uid, productID string) string { return Path(uid) + "/" + productID }

type PGStore struct{ db *pgxpool.Pool }

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{db: db} }

func (s *PGStore) Load(ctx context.Context, uid string) (Quantities, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT product_id, quantity FROM user_cart WHERE user_id=$1`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	q := Quantities{}
	for rows.Next() {
		var (
			id  string
			qty int
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		q[id] = qty
	}
	return q, rows.Err()
}

const upsertLine = `
	INSERT INTO user_cart (user_id, product_id, quantity, updated_at)
	VALUES ($1,$2,$3,NOW())
	ON CONFLICT (user_id, product_id)
	DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
`

func (s *PGStore) Set(ctx context.Context, uid, productID string, qty int) error {
	if qty <= 0 {
		return s.Delete(ctx, uid, productID)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.db.Exec(ctx, upsertLine, uid, productID, qty)
	return err
}

func (s *PGStore) Delete(ctx context.Context, uid, productID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.db.Exec(ctx, `DELETE FROM user_cart WHERE user_id=$1 AND product_id=$2`, uid, productID)
	return err
}

func (s *PGStore) Clear(ctx context.Context, uid string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.db.Exec(ctx, `DELETE FROM user_cart WHERE user_id=$1`, uid)
	return err
}

func (s *PGStore) SetMany(ctx context.Context, uid string, q Quantities) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for id, qty := range q {
		if qty <= 0 {
			batch.Queue(`DELETE FROM user_cart WHERE user_id=$1 AND product_id=$2`, uid, id)
			continue
		}
		batch.Queue(upsertLine, uid, id, qty)
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("cart batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
