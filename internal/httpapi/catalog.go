package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"boutique/internal/domain/models"
	"boutique/internal/services/catalog"
)

type catalogHandler struct {
	catalog *catalog.Catalog
}

func (h *catalogHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := catalog.Query{
		Category: q.Get("category"),
		Gender:   q.Get("gender"),
		Featured: q.Get("featured") != "",
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
	}
	if v := q.Get("minPrice"); v != "" {
		query.MinPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := q.Get("maxPrice"); v != "" {
		query.MaxPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := q.Get("sizes"); v != "" {
		query.Sizes = strings.Split(v, ",")
	}
	query.Page, _ = strconv.ParseInt(q.Get("page"), 10, 64)
	query.Limit, _ = strconv.ParseInt(q.Get("limit"), 10, 64)

	page, err := h.catalog.List(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":  true,
		"products": productViews(page.Products),
		"pagination": envelope{
			"total":      page.Total,
			"page":       page.PageNumber,
			"limit":      page.PageSize,
			"totalPages": page.TotalPages,
			"hasNext":    page.PageNumber < page.TotalPages,
			"hasPrev":    page.PageNumber > 1,
		},
	})
}

func (h *catalogHandler) featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Featured(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":  true,
		"products": productViews(products),
	})
}

func (h *catalogHandler) categories(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	views := make([]envelope, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, envelope{
			"category": s.Category,
			"count":    s.Count,
			"minPrice": s.MinPrice,
			"maxPrice": s.MaxPrice,
		})
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "categories": views})
}

func (h *catalogHandler) get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "produit non trouvé")
			return
		}
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "product": productView(product)})
}

func productViews(products []*models.Product) []envelope {
	views := make([]envelope, 0, len(products))
	for _, p := range products {
		views = append(views, productView(p))
	}
	return views
}

func productView(p *models.Product) envelope {
	colors := make([]envelope, 0, len(p.Colors))
	for _, c := range p.Colors {
		colors = append(colors, envelope{"name": c.Name, "hex": c.Hex})
	}
	images := make([]envelope, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, envelope{"url": img.URL, "isMain": img.IsMain})
	}

	return envelope{
		"id":            p.ID,
		"name":          p.Name,
		"description":   p.Description,
		"price":         p.Price,
		"originalPrice": p.OriginalPrice,
		"category":      p.Category,
		"gender":        p.Gender,
		"sizes":         p.Sizes,
		"colors":        colors,
		"images":        images,
		"stock":         p.Stock,
		"tags":          p.Tags,
		"featured":      p.Featured,
		"isActive":      p.IsActive,
		"viewCount":     p.ViewCount,
		"salesCount":    p.SalesCount,
		"rating": envelope{
			"average": p.Rating.Average,
			"count":   p.Rating.Count,
		},
		"createdAt": p.CreatedAt,
	}
}
