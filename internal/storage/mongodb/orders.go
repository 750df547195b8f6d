package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boutique/internal/domain/models"
	"boutique/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type orderDoc struct {
	ID              bson.ObjectID  `bson:"_id,omitempty"`
	Number          string         `bson:"number"`
	UserID          string         `bson:"user_id"`
	Items           []orderItemDoc `bson:"items"`
	Total           float64        `bson:"total"`
	Status          string         `bson:"status"`
	ShippingAddress addressDoc     `bson:"shipping_address"`
	CreatedAt       time.Time      `bson:"created_at"`
}

type orderItemDoc struct {
	ProductID string  `bson:"product_id"`
	Name      string  `bson:"name"`
	Price     float64 `bson:"price"`
	Quantity  int     `bson:"quantity"`
	Size      string  `bson:"size,omitempty"`
	Color     string  `bson:"color,omitempty"`
}

func (d *orderDoc) toModel() *models.Order {
	o := &models.Order{
		ID:     d.ID.Hex(),
		Number: d.Number,
		UserID: d.UserID,
		Total:  d.Total,
		Status: d.Status,
		ShippingAddress: models.Address{
			Street:     d.ShippingAddress.Street,
			City:       d.ShippingAddress.City,
			PostalCode: d.ShippingAddress.PostalCode,
			Country:    d.ShippingAddress.Country,
		},
		CreatedAt: d.CreatedAt,
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	return o
}

// SaveOrder inserts a new order and returns its ID.
func (s *Storage) SaveOrder(ctx context.Context, order *models.Order) (string, error) {
	const op = "storage.mongodb.SaveOrder"

	doc := orderDoc{
		ID:     bson.NewObjectID(),
		Number: order.Number,
		UserID: order.UserID,
		Total:  order.Total,
		Status: order.Status,
		ShippingAddress: addressDoc{
			Street:     order.ShippingAddress.Street,
			City:       order.ShippingAddress.City,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		CreatedAt: time.Now(),
	}
	for _, it := range order.Items {
		doc.Items = append(doc.Items, orderItemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}

	if _, err := s.orders.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return doc.ID.Hex(), nil
}

// OrderByID retrieves a single order.
func (s *Storage) OrderByID(ctx context.Context, id string) (*models.Order, error) {
	const op = "storage.mongodb.OrderByID"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
	}

	var doc orderDoc
	err = s.orders.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// OrdersForUser lists a user's orders newest-first.
func (s *Storage) OrdersForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	const op = "storage.mongodb.OrdersForUser"

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.orders.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	return decodeOrders(ctx, op, cur)
}

// Orders lists all orders newest-first with offset pagination.
func (s *Storage) Orders(ctx context.Context, offset, limit int64) ([]*models.Order, error) {
	const op = "storage.mongodb.Orders"

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := s.orders.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	return decodeOrders(ctx, op, cur)
}

func decodeOrders(ctx context.Context, op string, cur *mongo.Cursor) ([]*models.Order, error) {
	var orders []*models.Order
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// UpdateOrderStatus sets the status of an existing order.
func (s *Storage) UpdateOrderStatus(ctx context.Context, id, status string) error {
	const op = "storage.mongodb.UpdateOrderStatus"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
	}

	res, err := s.orders.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: status}}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
	}

	return nil
}

// CountOrders returns the order count and total revenue over non-cancelled orders.
func (s *Storage) CountOrders(ctx context.Context) (int64, float64, error) {
	const op = "storage.mongodb.CountOrders"

	n, err := s.orders.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$ne", Value: models.OrderStatusCancelled}}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
	}

	cur, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var revenue float64
	if cur.Next(ctx) {
		var row struct {
			Revenue float64 `bson:"revenue"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, 0, fmt.Errorf("%s: %w", op, err)
		}
		revenue = row.Revenue
	}
	if err := cur.Err(); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, revenue, nil
}
