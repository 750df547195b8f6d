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

type productDoc struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	Name          string        `bson:"name"`
	Description   string        `bson:"description"`
	Price         float64       `bson:"price"`
	OriginalPrice float64       `bson:"original_price,omitempty"`
	Category      string        `bson:"category"`
	Gender        string        `bson:"gender"`
	Sizes         []string      `bson:"sizes"`
	Colors        []colorDoc    `bson:"colors"`
	Images        []imageDoc    `bson:"images"`
	Stock         int           `bson:"stock"`
	Tags          []string      `bson:"tags"`
	Featured      bool          `bson:"featured"`
	IsActive      bool          `bson:"is_active"`
	ViewCount     int64         `bson:"view_count"`
	SalesCount    int64         `bson:"sales_count"`
	RatingAverage float64       `bson:"rating_average"`
	RatingCount   int64         `bson:"rating_count"`
	CreatedAt     time.Time     `bson:"created_at"`
}

type colorDoc struct {
	Name string `bson:"name"`
	Hex  string `bson:"hex"`
}

type imageDoc struct {
	URL    string `bson:"url"`
	IsMain bool   `bson:"is_main"`
}

func (d *productDoc) toModel() *models.Product {
	p := &models.Product{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		OriginalPrice: d.OriginalPrice,
		Category:      d.Category,
		Gender:        d.Gender,
		Sizes:         d.Sizes,
		Stock:         d.Stock,
		Tags:          d.Tags,
		Featured:      d.Featured,
		IsActive:      d.IsActive,
		ViewCount:     d.ViewCount,
		SalesCount:    d.SalesCount,
		Rating:        models.Rating{Average: d.RatingAverage, Count: d.RatingCount},
		CreatedAt:     d.CreatedAt,
	}
	for _, c := range d.Colors {
		p.Colors = append(p.Colors, models.Color{Name: c.Name, Hex: c.Hex})
	}
	for _, img := range d.Images {
		p.Images = append(p.Images, models.Image{URL: img.URL, IsMain: img.IsMain})
	}
	return p
}

func productToDoc(p *models.Product) productDoc {
	doc := productDoc{
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Category:      p.Category,
		Gender:        p.Gender,
		Sizes:         p.Sizes,
		Stock:         p.Stock,
		Tags:          p.Tags,
		Featured:      p.Featured,
		IsActive:      p.IsActive,
		ViewCount:     p.ViewCount,
		SalesCount:    p.SalesCount,
		RatingAverage: p.Rating.Average,
		RatingCount:   p.Rating.Count,
		CreatedAt:     p.CreatedAt,
	}
	for _, c := range p.Colors {
		doc.Colors = append(doc.Colors, colorDoc{Name: c.Name, Hex: c.Hex})
	}
	for _, img := range p.Images {
		doc.Images = append(doc.Images, imageDoc{URL: img.URL, IsMain: img.IsMain})
	}
	return doc
}

// SaveProduct inserts a new product and returns its ID.
func (s *Storage) SaveProduct(ctx context.Context, product *models.Product) (string, error) {
	const op = "storage.mongodb.SaveProduct"

	doc := productToDoc(product)
	doc.ID = bson.NewObjectID()
	doc.CreatedAt = time.Now()

	if _, err := s.products.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return doc.ID.Hex(), nil
}

// ProductByID retrieves a single product regardless of its active flag.
func (s *Storage) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	const op = "storage.mongodb.ProductByID"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}

	var doc productDoc
	err = s.products.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// Products runs the catalog listing query and returns the page plus the total match count.
func (s *Storage) Products(ctx context.Context, filter storage.ProductFilter) ([]*models.Product, int64, error) {
	const op = "storage.mongodb.Products"

	query := bson.D{}
	if !filter.IncludeInactive {
		query = append(query, bson.E{Key: "is_active", Value: true})
	}
	if filter.Category != "" {
		query = append(query, bson.E{Key: "category", Value: filter.Category})
	}
	if filter.Gender != "" {
		query = append(query, bson.E{Key: "gender", Value: filter.Gender})
	}
	if filter.Featured {
		query = append(query, bson.E{Key: "featured", Value: true})
	}
	if filter.MinPrice > 0 || filter.MaxPrice > 0 {
		price := bson.D{}
		if filter.MinPrice > 0 {
			price = append(price, bson.E{Key: "$gte", Value: filter.MinPrice})
		}
		if filter.MaxPrice > 0 {
			price = append(price, bson.E{Key: "$lte", Value: filter.MaxPrice})
		}
		query = append(query, bson.E{Key: "price", Value: price})
	}
	if len(filter.Sizes) > 0 {
		query = append(query, bson.E{Key: "sizes", Value: bson.D{{Key: "$in", Value: filter.Sizes}}})
	}
	if filter.Search != "" {
		regex := bson.Regex{Pattern: filter.Search, Options: "i"}
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: regex}},
			bson.D{{Key: "description", Value: regex}},
			bson.D{{Key: "tags", Value: regex}},
		}})
	}

	sort := bson.D{{Key: "created_at", Value: -1}}
	switch filter.Sort {
	case storage.SortPriceAsc:
		sort = bson.D{{Key: "price", Value: 1}}
	case storage.SortPriceDesc:
		sort = bson.D{{Key: "price", Value: -1}}
	case storage.SortPopular:
		sort = bson.D{{Key: "sales_count", Value: -1}}
	case storage.SortRating:
		sort = bson.D{{Key: "rating_average", Value: -1}}
	}

	total, err := s.products.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(filter.Offset).
		SetLimit(filter.Limit)

	cur, err := s.products.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var products []*models.Product
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return products, total, nil
}

// FeaturedProducts returns the newest featured products, capped at limit.
func (s *Storage) FeaturedProducts(ctx context.Context, limit int64) ([]*models.Product, error) {
	const op = "storage.mongodb.FeaturedProducts"

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.products.Find(ctx, bson.D{
		{Key: "featured", Value: true},
		{Key: "is_active", Value: true},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var products []*models.Product
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return products, nil
}

// Categories aggregates active products per category with price bounds.
func (s *Storage) Categories(ctx context.Context) ([]storage.CategorySummary, error) {
	const op = "storage.mongodb.Categories"

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "is_active", Value: true}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "min_price", Value: bson.D{{Key: "$min", Value: "$price"}}},
			{Key: "max_price", Value: bson.D{{Key: "$max", Value: "$price"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}

	cur, err := s.products.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var summaries []storage.CategorySummary
	for cur.Next(ctx) {
		var row struct {
			Category string  `bson:"_id"`
			Count    int64   `bson:"count"`
			MinPrice float64 `bson:"min_price"`
			MaxPrice float64 `bson:"max_price"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		summaries = append(summaries, storage.CategorySummary{
			Category: row.Category,
			Count:    row.Count,
			MinPrice: row.MinPrice,
			MaxPrice: row.MaxPrice,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return summaries, nil
}

// IncrementProductViews bumps the view counter outside the read path.
func (s *Storage) IncrementProductViews(ctx context.Context, id string) error {
	const op = "storage.mongodb.IncrementProductViews"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}

	_, err = s.products.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "view_count", Value: 1}}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateProduct overwrites an existing product's fields.
func (s *Storage) UpdateProduct(ctx context.Context, product *models.Product) error {
	const op = "storage.mongodb.UpdateProduct"

	oid, err := bson.ObjectIDFromHex(product.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}

	doc := productToDoc(product)
	doc.CreatedAt = product.CreatedAt

	res, err := s.products.ReplaceOne(ctx, bson.D{{Key: "_id", Value: oid}}, doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}

	return nil
}

// DeleteProduct removes a product permanently.
func (s *Storage) DeleteProduct(ctx context.Context, id string) error {
	const op = "storage.mongodb.DeleteProduct"

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}

	res, err := s.products.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}

	return nil
}

// CountProducts returns the number of active products.
func (s *Storage) CountProducts(ctx context.Context) (int64, error) {
	const op = "storage.mongodb.CountProducts"

	n, err := s.products.CountDocuments(ctx, bson.D{{Key: "is_active", Value: true}})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
