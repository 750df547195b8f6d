package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"boutique/internal/domain/models"
	"boutique/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order has no items")
	ErrInvalidItem   = errors.New("invalid order item")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrForbidden     = errors.New("order belongs to another user")
)

type OrderStore interface {
	SaveOrder(ctx context.Context, order *models.Order) (string, error)
	OrderByID(ctx context.Context, id string) (*models.Order, error)
	OrdersForUser(ctx context.Context, userID string) ([]*models.Order, error)
	Orders(ctx context.Context, offset, limit int64) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) error
}

// ProductProvider resolves catalog prices so the total is never trusted
// from the client.
type ProductProvider interface {
	ProductByID(ctx context.Context, id string) (*models.Product, error)
}

type Orders struct {
	logger   *slog.Logger
	store    OrderStore
	products ProductProvider
}

func New(logger *slog.Logger, store OrderStore, products ProductProvider) *Orders {
	return &Orders{logger: logger, store: store, products: products}
}

// ItemRequest is one cart line as submitted at checkout.
type ItemRequest struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// Create places an order. Prices and names are snapshotted from the catalog
// and the total is computed server-side.
func (o *Orders) Create(ctx context.Context, userID string, items []ItemRequest, shipping models.Address) (*models.Order, error) {
	const op = "orders.Create"

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyOrder)
	}

	var (
		orderItems []models.OrderItem
		total      float64
	)
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidItem)
		}

		product, err := o.products.ProductByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidItem, it.ProductID)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidItem, it.ProductID)
		}

		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
		total += product.Price * float64(it.Quantity)
	}
	total = math.Round(total*100) / 100

	order := &models.Order{
		Number:          orderNumber(),
		UserID:          userID,
		Items:           orderItems,
		Total:           total,
		Status:          models.OrderStatusPending,
		ShippingAddress: shipping,
	}

	id, err := o.store.SaveOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order.ID = id

	o.logger.Info("order created",
		slog.String("orderID", id),
		slog.String("userID", userID),
		slog.Float64("total", total))

	return order, nil
}

// orderNumber derives a short human-readable order reference.
func orderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// ListForUser returns the user's own orders, newest first.
func (o *Orders) ListForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	const op = "orders.ListForUser"

	list, err := o.store.OrdersForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Get returns an order visible to its owner or to an admin.
func (o *Orders) Get(ctx context.Context, id, requesterID, requesterRole string) (*models.Order, error) {
	const op = "orders.Get"

	order, err := o.store.OrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if order.UserID != requesterID && requesterRole != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	return order, nil
}

// ListAll returns all orders for the admin dashboard.
func (o *Orders) ListAll(ctx context.Context, page, limit int64) ([]*models.Order, error) {
	const op = "orders.ListAll"

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	list, err := o.store.Orders(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// UpdateStatus moves an order to a new status (admin surface).
func (o *Orders) UpdateStatus(ctx context.Context, id, status string) error {
	const op = "orders.UpdateStatus"

	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidStatus, status)
	}

	if err := o.store.UpdateOrderStatus(ctx, id, status); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	o.logger.Info("order status updated",
		slog.String("orderID", id),
		slog.String("status", status))

	return nil
}
