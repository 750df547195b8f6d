package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"boutique/internal/domain/models"
	"boutique/internal/services/orders"
)

type ordersHandler struct {
	orders *orders.Orders
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	ShippingAddress struct {
		Street     string `json:"street"`
		City       string `json:"city"`
		PostalCode string `json:"postalCode"`
		Country    string `json:"country"`
	} `json:"shippingAddress"`
}

func (h *ordersHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	items := make([]orders.ItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orders.ItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}

	order, err := h.orders.Create(r.Context(), claims.UserID, items, models.Address{
		Street:     req.ShippingAddress.Street,
		City:       req.ShippingAddress.City,
		PostalCode: req.ShippingAddress.PostalCode,
		Country:    req.ShippingAddress.Country,
	})
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrEmptyOrder):
			writeError(w, http.StatusBadRequest, "le panier est vide")
		case errors.Is(err, orders.ErrInvalidItem):
			writeError(w, http.StatusBadRequest, "article invalide ou indisponible")
		default:
			writeError(w, http.StatusInternalServerError, "erreur interne")
		}
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"success": true, "order": orderView(order)})
}

func (h *ordersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	list, err := h.orders.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "orders": orderViews(list)})
}

func (h *ordersHandler) get(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	order, err := h.orders.Get(r.Context(), r.PathValue("id"), claims.UserID, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "commande non trouvée")
		case errors.Is(err, orders.ErrForbidden):
			writeError(w, http.StatusForbidden, "accès refusé")
		default:
			writeError(w, http.StatusInternalServerError, "erreur interne")
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "order": orderView(order)})
}

func orderViews(list []*models.Order) []envelope {
	views := make([]envelope, 0, len(list))
	for _, o := range list {
		views = append(views, orderView(o))
	}
	return views
}

func orderView(o *models.Order) envelope {
	items := make([]envelope, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, envelope{
			"productId": it.ProductID,
			"name":      it.Name,
			"price":     it.Price,
			"quantity":  it.Quantity,
			"size":      it.Size,
			"color":     it.Color,
		})
	}

	return envelope{
		"id":     o.ID,
		"number": o.Number,
		"userId": o.UserID,
		"items":  items,
		"total":  o.Total,
		"status": o.Status,
		"shippingAddress": envelope{
			"street":     o.ShippingAddress.Street,
			"city":       o.ShippingAddress.City,
			"postalCode": o.ShippingAddress.PostalCode,
			"country":    o.ShippingAddress.Country,
		},
		"createdAt": o.CreatedAt,
	}
}
