package models

import "time"

// Product categories form a closed set; anything else is rejected at the API boundary.
var ProductCategories = []string{
	"T-shirts", "Robes", "Pantalons", "Vestes", "Pulls",
	"Shorts", "Jupes", "Manteaux", "Accessoires", "Chaussures",
}

// Product is a catalog item with its variants and merchandising state.
type Product struct {
	ID            string
	Name          string
	Description   string
	Price         float64
	OriginalPrice float64
	Category      string
	Gender        string
	Sizes         []string
	Colors        []Color
	Images        []Image
	Stock         int
	Tags          []string
	Featured      bool
	IsActive      bool
	ViewCount     int64
	SalesCount    int64
	Rating        Rating
	CreatedAt     time.Time
}

type Color struct {
	Name string
	Hex  string
}

type Image struct {
	URL    string
	IsMain bool
}

type Rating struct {
	Average float64
	Count   int64
}

// ValidCategory reports whether c belongs to the closed category set.
func ValidCategory(c string) bool {
	for _, known := range ProductCategories {
		if c == known {
			return true
		}
	}
	return false
}
