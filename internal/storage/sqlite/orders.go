package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boutique/internal/domain/models"
	"boutique/internal/storage"

	"github.com/google/uuid"
)

const orderColumns = `id, number, user_id, items, total, status,
	street, city, postal_code, country, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var (
		o                                 models.Order
		items                             string
		street, city, postalCode, country sql.NullString
	)
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &items, &o.Total, &o.Status,
		&street, &city, &postalCode, &country, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, err
	}
	o.ShippingAddress = models.Address{
		Street:     street.String,
		City:       city.String,
		PostalCode: postalCode.String,
		Country:    country.String,
	}
	return &o, nil
}

// SaveOrder inserts a new order and returns its ID.
func (s *Storage) SaveOrder(ctx context.Context, order *models.Order) (string, error) {
	const op = "storage.sqlite.SaveOrder"

	items, err := json.Marshal(order.Items)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, number, user_id, items, total, status,
			street, city, postal_code, country, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, order.Number, order.UserID, string(items), order.Total, order.Status,
		nullStr(order.ShippingAddress.Street), nullStr(order.ShippingAddress.City),
		nullStr(order.ShippingAddress.PostalCode), nullStr(order.ShippingAddress.Country),
		time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// OrderByID retrieves a single order.
func (s *Storage) OrderByID(ctx context.Context, id string) (*models.Order, error) {
	const op = "storage.sqlite.OrderByID"

	row := s.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// OrdersForUser lists a user's orders newest-first.
func (s *Storage) OrdersForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	const op = "storage.sqlite.OrdersForUser"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectOrders(op, rows)
}

// Orders lists all orders newest-first with offset pagination.
func (s *Storage) Orders(ctx context.Context, offset, limit int64) ([]*models.Order, error) {
	const op = "storage.sqlite.Orders"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectOrders(op, rows)
}

func collectOrders(op string, rows *sql.Rows) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// UpdateOrderStatus sets the status of an existing order.
func (s *Storage) UpdateOrderStatus(ctx context.Context, id, status string) error {
	const op = "storage.sqlite.UpdateOrderStatus"

	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
	}
	return nil
}

// CountOrders returns the order count and total revenue over non-cancelled orders.
func (s *Storage) CountOrders(ctx context.Context) (int64, float64, error) {
	const op = "storage.sqlite.CountOrders"

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	var revenue sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		"SELECT SUM(total) FROM orders WHERE status != ?", models.OrderStatusCancelled,
	).Scan(&revenue)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, revenue.Float64, nil
}
