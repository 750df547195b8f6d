package admin

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain/models"
	"boutique/internal/storage"
)

type fakeStore struct {
	users  map[string]*models.User
	orders []*models.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*models.User)}
}

func (f *fakeStore) CountUsers(_ context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeStore) CountProducts(_ context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeStore) CountOrders(_ context.Context) (int64, float64, error) {
	var revenue float64
	for _, o := range f.orders {
		if o.Status != models.OrderStatusCancelled {
			revenue += o.Total
		}
	}
	return int64(len(f.orders)), revenue, nil
}

func (f *fakeStore) Orders(_ context.Context, _, limit int64) ([]*models.Order, error) {
	if int64(len(f.orders)) < limit {
		limit = int64(len(f.orders))
	}
	return f.orders[:limit], nil
}

func (f *fakeStore) Users(_ context.Context, _, _ int64) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) UserByID(_ context.Context, userID string) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return storage.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func newTestAdmin() (*Admin, *fakeStore) {
	store := newFakeStore()
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), store, store), store
}

func seedUser(store *fakeStore, id string, verified bool) {
	exp := time.Now().Add(24 * time.Hour)
	store.users[id] = &models.User{
		ID:         id,
		Name:       "Chloé Martin",
		Email:      id + "@example.com",
		Role:       models.RoleCustomer,
		IsVerified: verified,
	}
	if !verified {
		store.users[id].VerificationToken = "tok-" + id
		store.users[id].VerificationTokenExpires = &exp
	}
}

func TestVerifyUser(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAdmin()
	seedUser(store, "user-1", false)

	user, err := a.VerifyUser(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Empty(t, user.VerificationToken)
	assert.Nil(t, user.VerificationTokenExpires)

	// The change is persisted, not just returned.
	stored := store.users["user-1"]
	assert.True(t, stored.IsVerified)
	assert.Empty(t, stored.VerificationToken)
}

func TestVerifyUser_AlreadyVerified(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAdmin()
	seedUser(store, "user-1", true)

	_, err := a.VerifyUser(ctx, "user-1")
	require.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyUser_Unknown(t *testing.T) {
	a, _ := newTestAdmin()

	_, err := a.VerifyUser(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAdmin()
	seedUser(store, "user-1", true)

	user, err := a.SetRole(ctx, "user-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, models.RoleAdmin, store.users["user-1"].Role)

	// And back down again.
	user, err = a.SetRole(ctx, "user-1", models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
}

func TestSetRole_InvalidRole(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAdmin()
	seedUser(store, "user-1", true)

	_, err := a.SetRole(ctx, "user-1", "superuser")
	require.ErrorIs(t, err, ErrInvalidRole)
	assert.Equal(t, models.RoleCustomer, store.users["user-1"].Role)
}

func TestSetRole_Unknown(t *testing.T) {
	a, _ := newTestAdmin()

	_, err := a.SetRole(context.Background(), "nope", models.RoleAdmin)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAdmin()
	seedUser(store, "admin-1", true)
	seedUser(store, "user-1", true)

	require.NoError(t, a.DeleteUser(ctx, "admin-1", "user-1"))
	_, ok := store.users["user-1"]
	assert.False(t, ok)
}

func TestDeleteUser_Self(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAdmin()
	seedUser(store, "admin-1", true)

	err := a.DeleteUser(ctx, "admin-1", "admin-1")
	require.ErrorIs(t, err, ErrSelfDelete)
	_, ok := store.users["admin-1"]
	assert.True(t, ok)
}

func TestDeleteUser_Unknown(t *testing.T) {
	a, _ := newTestAdmin()

	err := a.DeleteUser(context.Background(), "admin-1", "nope")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	a, store := newTestAdmin()
	seedUser(store, "user-1", true)
	store.orders = []*models.Order{
		{Total: 100, Status: models.OrderStatusPaid},
		{Total: 50, Status: models.OrderStatusCancelled},
	}

	stats, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(2), stats.Orders)
	assert.Equal(t, 100.0, stats.Revenue)
	assert.Len(t, stats.RecentOrders, 2)
}
