package storage

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrTokenNotFound     = errors.New("refresh token not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
)

// Catalog sort orders. The zero value sorts newest-first.
const (
	SortNewest    = ""
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortPopular   = "popular"
	SortRating    = "rating"
)

// ProductFilter describes a catalog listing query. Zero-valued fields are
// not applied. IncludeInactive lifts the is_active filter for the admin
// surface; the public catalog never sets it.
type ProductFilter struct {
	Category        string
	Gender          string
	Featured        bool
	Search          string
	MinPrice        float64
	MaxPrice        float64
	Sizes           []string
	Sort            string
	Offset          int64
	Limit           int64
	IncludeInactive bool
}

// CategorySummary is one row of the category aggregation.
type CategorySummary struct {
	Category string
	Count    int64
	MinPrice float64
	MaxPrice float64
}
