package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"boutique/internal/domain/models"
	"boutique/internal/storage"

	"github.com/google/uuid"
)

// Variant data (sizes, colors, images, tags) is stored as JSON text columns.
// The catalog size filter is applied in Go after the SQL filters.

type productRow struct {
	ID            string
	Name          string
	Description   string
	Price         float64
	OriginalPrice sql.NullFloat64
	Category      string
	Gender        string
	Sizes         string
	Colors        string
	Images        string
	Stock         int
	Tags          string
	Featured      bool
	IsActive      bool
	ViewCount     int64
	SalesCount    int64
	RatingAverage float64
	RatingCount   int64
	CreatedAt     time.Time
}

const productColumns = `id, name, description, price, original_price, category, gender,
	sizes, colors, images, stock, tags, featured, is_active,
	view_count, sales_count, rating_average, rating_count, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var r productRow
	err := row.Scan(
		&r.ID, &r.Name, &r.Description, &r.Price, &r.OriginalPrice, &r.Category, &r.Gender,
		&r.Sizes, &r.Colors, &r.Images, &r.Stock, &r.Tags, &r.Featured, &r.IsActive,
		&r.ViewCount, &r.SalesCount, &r.RatingAverage, &r.RatingCount, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice.Float64,
		Category:      r.Category,
		Gender:        r.Gender,
		Stock:         r.Stock,
		Featured:      r.Featured,
		IsActive:      r.IsActive,
		ViewCount:     r.ViewCount,
		SalesCount:    r.SalesCount,
		Rating:        models.Rating{Average: r.RatingAverage, Count: r.RatingCount},
		CreatedAt:     r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.Sizes), &p.Sizes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.Colors), &p.Colors); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.Images), &p.Images); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.Tags), &p.Tags); err != nil {
		return nil, err
	}
	return p, nil
}

func marshalVariants(p *models.Product) (sizes, colors, images, tags string, err error) {
	enc := func(v any) (string, error) {
		if v == nil {
			return "[]", nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if sizes, err = enc(orEmpty(p.Sizes)); err != nil {
		return
	}
	if colors, err = enc(orEmptyColors(p.Colors)); err != nil {
		return
	}
	if images, err = enc(orEmptyImages(p.Images)); err != nil {
		return
	}
	tags, err = enc(orEmpty(p.Tags))
	return
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyColors(c []models.Color) []models.Color {
	if c == nil {
		return []models.Color{}
	}
	return c
}

func orEmptyImages(i []models.Image) []models.Image {
	if i == nil {
		return []models.Image{}
	}
	return i
}

// SaveProduct inserts a new product and returns its ID.
func (s *Storage) SaveProduct(ctx context.Context, product *models.Product) (string, error) {
	const op = "storage.sqlite.SaveProduct"

	sizes, colors, images, tags, err := marshalVariants(product)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, description, price, original_price, category, gender,
			sizes, colors, images, stock, tags, featured, is_active,
			view_count, sales_count, rating_average, rating_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 0, ?)`,
		id, product.Name, product.Description, product.Price,
		sql.NullFloat64{Float64: product.OriginalPrice, Valid: product.OriginalPrice > 0},
		product.Category, product.Gender,
		sizes, colors, images, product.Stock, tags, product.Featured, product.IsActive,
		time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// ProductByID retrieves a single product regardless of its active flag.
func (s *Storage) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	const op = "storage.sqlite.ProductByID"

	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

// Products runs the catalog listing query and returns the page plus the total match count.
func (s *Storage) Products(ctx context.Context, filter storage.ProductFilter) ([]*models.Product, int64, error) {
	const op = "storage.sqlite.Products"

	where := []string{}
	args := []any{}

	if !filter.IncludeInactive {
		where = append(where, "is_active = 1")
	}

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Gender != "" {
		where = append(where, "gender = ?")
		args = append(args, filter.Gender)
	}
	if filter.Featured {
		where = append(where, "featured = 1")
	}
	if filter.MinPrice > 0 {
		where = append(where, "price >= ?")
		args = append(args, filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		where = append(where, "price <= ?")
		args = append(args, filter.MaxPrice)
	}
	if filter.Search != "" {
		where = append(where, "(name LIKE ? OR description LIKE ? OR tags LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	order := "created_at DESC"
	switch filter.Sort {
	case storage.SortPriceAsc:
		order = "price ASC"
	case storage.SortPriceDesc:
		order = "price DESC"
	case storage.SortPopular:
		order = "sales_count DESC"
	case storage.SortRating:
		order = "rating_average DESC"
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + order

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var matched []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		if len(filter.Sizes) > 0 && !hasAnySize(product.Sizes, filter.Sizes) {
			continue
		}
		matched = append(matched, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	total := int64(len(matched))
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < total {
		end = start + filter.Limit
	}

	return matched[start:end], total, nil
}

func hasAnySize(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// FeaturedProducts returns the newest featured products, capped at limit.
func (s *Storage) FeaturedProducts(ctx context.Context, limit int64) ([]*models.Product, error) {
	const op = "storage.sqlite.FeaturedProducts"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE featured = 1 AND is_active = 1 ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// Categories aggregates active products per category with price bounds.
func (s *Storage) Categories(ctx context.Context) ([]storage.CategorySummary, error) {
	const op = "storage.sqlite.Categories"

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*), MIN(price), MAX(price)
		FROM products WHERE is_active = 1
		GROUP BY category ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var summaries []storage.CategorySummary
	for rows.Next() {
		var c storage.CategorySummary
		if err := rows.Scan(&c.Category, &c.Count, &c.MinPrice, &c.MaxPrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		summaries = append(summaries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return summaries, nil
}

// IncrementProductViews bumps the view counter outside the read path.
func (s *Storage) IncrementProductViews(ctx context.Context, id string) error {
	const op = "storage.sqlite.IncrementProductViews"

	_, err := s.db.ExecContext(ctx,
		"UPDATE products SET view_count = view_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateProduct overwrites an existing product's fields.
func (s *Storage) UpdateProduct(ctx context.Context, product *models.Product) error {
	const op = "storage.sqlite.UpdateProduct"

	sizes, colors, images, tags, err := marshalVariants(product)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			name = ?, description = ?, price = ?, original_price = ?,
			category = ?, gender = ?, sizes = ?, colors = ?, images = ?,
			stock = ?, tags = ?, featured = ?, is_active = ?,
			view_count = ?, sales_count = ?, rating_average = ?, rating_count = ?
		WHERE id = ?`,
		product.Name, product.Description, product.Price,
		sql.NullFloat64{Float64: product.OriginalPrice, Valid: product.OriginalPrice > 0},
		product.Category, product.Gender, sizes, colors, images,
		product.Stock, tags, product.Featured, product.IsActive,
		product.ViewCount, product.SalesCount, product.Rating.Average, product.Rating.Count,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}
	return nil
}

// DeleteProduct removes a product permanently.
func (s *Storage) DeleteProduct(ctx context.Context, id string) error {
	const op = "storage.sqlite.DeleteProduct"

	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}
	return nil
}

// CountProducts returns the number of active products.
func (s *Storage) CountProducts(ctx context.Context) (int64, error) {
	const op = "storage.sqlite.CountProducts"

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE is_active = 1").Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
