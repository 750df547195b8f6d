package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"boutique/internal/domain/models"
	"boutique/internal/services/admin"
	"boutique/internal/services/catalog"
	"boutique/internal/services/orders"
)

type adminHandler struct {
	admin   *admin.Admin
	catalog *catalog.Catalog
	orders  *orders.Orders
}

func (h *adminHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"stats": envelope{
			"users":        stats.Users,
			"products":     stats.Products,
			"orders":       stats.Orders,
			"revenue":      stats.Revenue,
			"recentOrders": orderViews(stats.RecentOrders),
		},
	})
}

func (h *adminHandler) users(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	users, err := h.admin.Users(r.Context(), page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	views := make([]envelope, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "users": views})
}

func (h *adminHandler) verifyUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.admin.VerifyUser(r.Context(), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "utilisateur non trouvé")
		case errors.Is(err, admin.ErrAlreadyVerified):
			writeError(w, http.StatusBadRequest, "cet utilisateur est déjà vérifié")
		default:
			writeError(w, http.StatusInternalServerError, "erreur interne")
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "utilisateur vérifié avec succès",
		"user":    userView(user),
	})
}

type userRoleRequest struct {
	Role string `json:"role"`
}

func (h *adminHandler) setUserRole(w http.ResponseWriter, r *http.Request) {
	var req userRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Role == "" {
		writeError(w, http.StatusBadRequest, "rôle requis")
		return
	}

	user, err := h.admin.SetRole(r.Context(), r.PathValue("id"), req.Role)
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, "rôle invalide")
		case errors.Is(err, admin.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "utilisateur non trouvé")
		default:
			writeError(w, http.StatusInternalServerError, "erreur interne")
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "rôle mis à jour",
		"user":    userView(user),
	})
}

func (h *adminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	if err := h.admin.DeleteUser(r.Context(), claims.UserID, r.PathValue("id")); err != nil {
		switch {
		case errors.Is(err, admin.ErrSelfDelete):
			writeError(w, http.StatusBadRequest, "impossible de supprimer son propre compte")
		case errors.Is(err, admin.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "utilisateur non trouvé")
		default:
			writeError(w, http.StatusInternalServerError, "erreur interne")
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "utilisateur supprimé"})
}

func (h *adminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	list, err := h.orders.ListAll(r.Context(), page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "orders": orderViews(list)})
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (h *adminHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "statut requis")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		switch {
		case errors.Is(err, orders.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "statut de commande invalide")
		case errors.Is(err, orders.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "commande non trouvée")
		default:
			writeError(w, http.StatusInternalServerError, "erreur interne")
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "statut mis à jour"})
}

// listProducts lists the catalog for the dashboard, hidden products
// included.
func (h *adminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(r)

	result, err := h.catalog.List(r.Context(), catalog.Query{
		Category:        q.Get("category"),
		Search:          q.Get("search"),
		Sort:            q.Get("sort"),
		Page:            page,
		Limit:           limit,
		IncludeInactive: true,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":    true,
		"products":   productViews(result.Products),
		"total":      result.Total,
		"page":       result.PageNumber,
		"totalPages": result.TotalPages,
	})
}

type productRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice"`
	Category      string   `json:"category"`
	Gender        string   `json:"gender"`
	Sizes         []string `json:"sizes"`
	Colors        []struct {
		Name string `json:"name"`
		Hex  string `json:"hex"`
	} `json:"colors"`
	Images []struct {
		URL    string `json:"url"`
		IsMain bool   `json:"isMain"`
	} `json:"images"`
	Stock    int      `json:"stock"`
	Tags     []string `json:"tags"`
	Featured bool     `json:"featured"`
	IsActive *bool    `json:"isActive"`
}

func (r productRequest) toModel() *models.Product {
	p := &models.Product{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Category:      r.Category,
		Gender:        r.Gender,
		Sizes:         r.Sizes,
		Stock:         r.Stock,
		Tags:          r.Tags,
		Featured:      r.Featured,
		IsActive:      true,
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	for _, c := range r.Colors {
		p.Colors = append(p.Colors, models.Color{Name: c.Name, Hex: c.Hex})
	}
	for _, img := range r.Images {
		p.Images = append(p.Images, models.Image{URL: img.URL, IsMain: img.IsMain})
	}
	return p
}

func (h *adminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	id, err := h.catalog.Create(r.Context(), req.toModel())
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidProduct) {
			writeError(w, http.StatusBadRequest, "produit invalide")
			return
		}
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"success": true, "productId": id})
}

func (h *adminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	product := req.toModel()
	product.ID = r.PathValue("id")

	if err := h.catalog.Update(r.Context(), product); err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidProduct):
			writeError(w, http.StatusBadRequest, "produit invalide")
		case errors.Is(err, catalog.ErrProductNotFound):
			writeError(w, http.StatusNotFound, "produit non trouvé")
		default:
			writeError(w, http.StatusInternalServerError, "erreur interne")
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "produit mis à jour"})
}

func (h *adminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "produit non trouvé")
			return
		}
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "produit supprimé"})
}

type productActiveRequest struct {
	IsActive bool `json:"isActive"`
}

func (h *adminHandler) setProductActive(w http.ResponseWriter, r *http.Request) {
	var req productActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	if err := h.catalog.SetActive(r.Context(), r.PathValue("id"), req.IsActive); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "produit non trouvé")
			return
		}
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "visibilité mise à jour"})
}

func pageParams(r *http.Request) (page, limit int64) {
	page, _ = strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	limit, _ = strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	return page, limit
}
