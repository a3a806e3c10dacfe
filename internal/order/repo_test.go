package order

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/konki-burger/internal/database"
)

func pgRepo(t *testing.T) (*PGRepo, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := database.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, database.Migrate(ctx, db))
	return NewPGRepo(db), db
}

func newOrder(owner string) *Order {
	return &Order{
		ID:       uuid.NewString(),
		UserID:   owner,
		Customer: Customer{Name: "Ana García", Email: "ana@example.com", Address: "Calle Mayor 12, Madrid"},
		Items: []Item{{
			Product:  ProductSnapshot{ID: "a", Name: "Konki Clásica", Price: decimal.RequireFromString("9.99")},
			Quantity: 2,
		}},
		Total:  decimal.RequireFromString("19.98"),
		Status: StatusPending,
	}
}

func TestPGRepo_UpdateStatusIsOneShot(t *testing.T) {
	repo, db := pgRepo(t)
	ctx := context.Background()

	o := newOrder(GuestOwner)
	require.NoError(t, repo.Create(ctx, o))
	t.Cleanup(func() { _, _ = db.Exec(context.Background(), `DELETE FROM orders WHERE id=$1`, o.ID) })

	pickup := "13:30"
	require.NoError(t, repo.UpdateStatus(ctx, o.ID, o.UserID, StatusAccepted, &pickup))
	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	require.NotNil(t, got.PickupTime)
	assert.Equal(t, "13:30", *got.PickupTime)
	assert.Equal(t, "19.98", got.Total.StringFixed(2))

	assert.ErrorIs(t, repo.UpdateStatus(ctx, o.ID, o.UserID, StatusRejected, nil), ErrFinal)
	got, err = repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.NewString(), GuestOwner, StatusRejected, nil), ErrNotFound)
}

func TestPGRepo_UpdateStatusReachesOwnerCopy(t *testing.T) {
	repo, db := pgRepo(t)
	ctx := context.Background()

	uid := uuid.NewString()
	_, err := db.Exec(ctx, `INSERT INTO users (id, name, email, password_hash) VALUES ($1,'Ana',$2,'x')`,
		uid, uid+"@example.com")
	require.NoError(t, err)
	o := newOrder(uid)
	require.NoError(t, repo.Create(ctx, o))
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM orders WHERE id=$1`, o.ID)
		_, _ = db.Exec(context.Background(), `DELETE FROM users WHERE id=$1`, uid)
	})

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, uid, StatusRejected, nil))
	mine, err := repo.ListByUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, StatusRejected, mine[0].Status)
	assert.Nil(t, mine[0].PickupTime)
}
