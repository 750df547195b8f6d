package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"boutique/internal/domain/models"
	"boutique/internal/lib/sl"
	"boutique/internal/storage"
)

const (
	defaultPageSize  = 12
	maxPageSize      = 60
	featuredPageSize = 8
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

type ProductStore interface {
	SaveProduct(ctx context.Context, product *models.Product) (string, error)
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	Products(ctx context.Context, filter storage.ProductFilter) ([]*models.Product, int64, error)
	FeaturedProducts(ctx context.Context, limit int64) ([]*models.Product, error)
	Categories(ctx context.Context) ([]storage.CategorySummary, error)
	IncrementProductViews(ctx context.Context, id string) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type Catalog struct {
	logger *slog.Logger
	store  ProductStore
}

// Page is one page of catalog results with pagination totals.
type Page struct {
	Products   []*models.Product
	Total      int64
	PageNumber int64
	PageSize   int64
	TotalPages int64
}

func New(logger *slog.Logger, store ProductStore) *Catalog {
	return &Catalog{logger: logger, store: store}
}

// Query describes a catalog listing request. IncludeInactive exposes hidden
// products and is reserved for the admin surface.
type Query struct {
	Category        string
	Gender          string
	Featured        bool
	Search          string
	MinPrice        float64
	MaxPrice        float64
	Sizes           []string
	Sort            string
	Page            int64
	Limit           int64
	IncludeInactive bool
}

// List returns a filtered, sorted, paginated view of the catalog.
func (c *Catalog) List(ctx context.Context, q Query) (*Page, error) {
	const op = "catalog.List"

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	products, total, err := c.store.Products(ctx, storage.ProductFilter{
		Category:        q.Category,
		Gender:          q.Gender,
		Featured:        q.Featured,
		Search:          q.Search,
		MinPrice:        q.MinPrice,
		MaxPrice:        q.MaxPrice,
		Sizes:           q.Sizes,
		Sort:            q.Sort,
		Offset:          (q.Page - 1) * q.Limit,
		Limit:           q.Limit,
		IncludeInactive: q.IncludeInactive,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	totalPages := total / q.Limit
	if total%q.Limit != 0 {
		totalPages++
	}

	return &Page{
		Products:   products,
		Total:      total,
		PageNumber: q.Page,
		PageSize:   q.Limit,
		TotalPages: totalPages,
	}, nil
}

// Featured returns the newest featured products.
func (c *Catalog) Featured(ctx context.Context) ([]*models.Product, error) {
	const op = "catalog.Featured"

	products, err := c.store.FeaturedProducts(ctx, featuredPageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// Categories returns active-product counts and price bounds per category.
func (c *Catalog) Categories(ctx context.Context) ([]storage.CategorySummary, error) {
	const op = "catalog.Categories"

	summaries, err := c.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return summaries, nil
}

// Get returns a single active product and bumps its view counter.
// Inactive products are hidden from the public surface.
func (c *Catalog) Get(ctx context.Context, id string) (*models.Product, error) {
	const op = "catalog.Get"

	product, err := c.store.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
	}

	if err := c.store.IncrementProductViews(ctx, id); err != nil {
		c.logger.Warn("failed to bump view counter", sl.Err(err))
	}

	return product, nil
}

// Create validates and stores a new product (admin surface).
func (c *Catalog) Create(ctx context.Context, product *models.Product) (string, error) {
	const op = "catalog.Create"

	if err := validate(product); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := c.store.SaveProduct(ctx, product)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Info("product created",
		slog.String("productID", id),
		slog.String("name", product.Name))

	return id, nil
}

// Update validates and overwrites an existing product (admin surface).
// Counters and rating survive the overwrite; they belong to the shop, not
// the editor.
func (c *Catalog) Update(ctx context.Context, product *models.Product) error {
	const op = "catalog.Update"

	if err := validate(product); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	current, err := c.store.ProductByID(ctx, product.ID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	product.ViewCount = current.ViewCount
	product.SalesCount = current.SalesCount
	product.Rating = current.Rating
	product.CreatedAt = current.CreatedAt

	if err := c.store.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete removes a product permanently (admin surface).
func (c *Catalog) Delete(ctx context.Context, id string) error {
	const op = "catalog.Delete"

	if err := c.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Info("product deleted", slog.String("productID", id))

	return nil
}

// SetActive toggles a product's visibility without deleting it.
func (c *Catalog) SetActive(ctx context.Context, id string, active bool) error {
	const op = "catalog.SetActive"

	product, err := c.store.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	product.IsActive = active
	if err := c.store.UpdateProduct(ctx, product); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func validate(p *models.Product) error {
	if p.Name == "" || len(p.Name) > 100 {
		return fmt.Errorf("%w: name", ErrInvalidProduct)
	}
	if p.Description == "" || len(p.Description) > 2000 {
		return fmt.Errorf("%w: description", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price", ErrInvalidProduct)
	}
	if !models.ValidCategory(p.Category) {
		return fmt.Errorf("%w: category", ErrInvalidProduct)
	}
	return nil
}
