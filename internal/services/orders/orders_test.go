package orders

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain/models"
	"boutique/internal/storage"
)

type fakeOrderStore struct {
	orders map[string]*models.Order
	nextID int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*models.Order)}
}

func (f *fakeOrderStore) SaveOrder(_ context.Context, order *models.Order) (string, error) {
	f.nextID++
	id := "order-" + strconv.Itoa(f.nextID)
	cp := *order
	cp.ID = id
	f.orders[id] = &cp
	return id, nil
}

func (f *fakeOrderStore) OrderByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) OrdersForUser(_ context.Context, userID string) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) Orders(_ context.Context, _, _ int64) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateOrderStatus(_ context.Context, id, status string) error {
	o, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

type fakeProducts struct {
	products map[string]*models.Product
}

func (f *fakeProducts) ProductByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func newTestOrders() (*Orders, *fakeOrderStore, *fakeProducts) {
	store := newFakeOrderStore()
	products := &fakeProducts{products: map[string]*models.Product{
		"shirt": {ID: "shirt", Name: "Chemise", Price: 39.99, IsActive: true},
		"dress": {ID: "dress", Name: "Robe", Price: 89.90, IsActive: true},
		"ghost": {ID: "ghost", Name: "Retiré", Price: 10, IsActive: false},
	}}
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), store, products), store, products
}

func TestCreate_SnapshotsPricesAndComputesTotal(t *testing.T) {
	ctx := context.Background()
	o, _, products := newTestOrders()

	order, err := o.Create(ctx, "user-1", []ItemRequest{
		{ProductID: "shirt", Quantity: 3, Size: "M"},
		{ProductID: "dress", Quantity: 1},
	}, models.Address{City: "Lyon"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 209.87, order.Total, 0.001)
	assert.True(t, strings.HasPrefix(order.Number, "ORD-"))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Chemise", order.Items[0].Name)
	assert.Equal(t, 39.99, order.Items[0].Price)

	// A later catalog price change does not alter the snapshot.
	products.products["shirt"].Price = 59.99
	got, err := o.Get(ctx, order.ID, "user-1", models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, 39.99, got.Items[0].Price)
}

func TestCreate_Rejections(t *testing.T) {
	ctx := context.Background()
	o, _, _ := newTestOrders()

	_, err := o.Create(ctx, "user-1", nil, models.Address{})
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = o.Create(ctx, "user-1", []ItemRequest{{ProductID: "shirt", Quantity: 0}}, models.Address{})
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = o.Create(ctx, "user-1", []ItemRequest{{ProductID: "unknown", Quantity: 1}}, models.Address{})
	require.ErrorIs(t, err, ErrInvalidItem)

	// Deactivated products cannot be ordered.
	_, err = o.Create(ctx, "user-1", []ItemRequest{{ProductID: "ghost", Quantity: 1}}, models.Address{})
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestGet_OwnerOrAdminOnly(t *testing.T) {
	ctx := context.Background()
	o, _, _ := newTestOrders()

	order, err := o.Create(ctx, "user-1", []ItemRequest{{ProductID: "shirt", Quantity: 1}}, models.Address{})
	require.NoError(t, err)

	_, err = o.Get(ctx, order.ID, "user-1", models.RoleCustomer)
	require.NoError(t, err)

	_, err = o.Get(ctx, order.ID, "user-2", models.RoleCustomer)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = o.Get(ctx, order.ID, "user-2", models.RoleAdmin)
	require.NoError(t, err)

	_, err = o.Get(ctx, "missing", "user-1", models.RoleCustomer)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	o, store, _ := newTestOrders()

	order, err := o.Create(ctx, "user-1", []ItemRequest{{ProductID: "shirt", Quantity: 1}}, models.Address{})
	require.NoError(t, err)

	require.NoError(t, o.UpdateStatus(ctx, order.ID, models.OrderStatusShipped))
	assert.Equal(t, models.OrderStatusShipped, store.orders[order.ID].Status)

	err = o.UpdateStatus(ctx, order.ID, "lost-in-space")
	require.ErrorIs(t, err, ErrInvalidStatus)

	err = o.UpdateStatus(ctx, "missing", models.OrderStatusPaid)
	require.ErrorIs(t, err, ErrOrderNotFound)
}
