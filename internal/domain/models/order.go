package models

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a placed order with a server-computed total.
type Order struct {
	ID              string
	Number          string
	UserID          string
	Items           []OrderItem
	Total           float64
	Status          string
	ShippingAddress Address
	CreatedAt       time.Time
}

// OrderItem snapshots a product at purchase time.
type OrderItem struct {
	ProductID string
	Name      string
	Price     float64
	Quantity  int
	Size      string
	Color     string
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
