package tests

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/tests/suite"
)

func TestCatalogAdminLifecycle(t *testing.T) {
	ctx, st := suite.New(t)

	adminToken := adminLogin(ctx, st)

	// Customers cannot reach the admin surface.
	customerToken, _ := registerAndLogin(st)
	status, _ := st.PostJSON("/api/admin/products", customerToken, map[string]any{})
	require.Equal(t, 403, status)

	status, resp := st.PostJSON("/api/admin/products", adminToken, map[string]any{
		"name":        "Pull en laine mérinos",
		"description": gofakeit.Sentence(12),
		"price":       79.90,
		"category":    "Pulls",
		"gender":      "homme",
		"sizes":       []string{"M", "L"},
		"stock":       25,
		"featured":    true,
	})
	require.Equal(t, 201, status)
	productID := resp["productId"].(string)
	require.NotEmpty(t, productID)

	status, resp = st.GetJSON("/api/products/"+productID, "")
	require.Equal(t, 200, status)
	product := resp["product"].(map[string]any)
	assert.Equal(t, "Pull en laine mérinos", product["name"])

	status, resp = st.GetJSON("/api/products?category=Pulls", "")
	require.Equal(t, 200, status)
	require.Len(t, resp["products"].([]any), 1)

	// Deactivation hides the product from the public surface.
	status, _ = st.PatchJSON("/api/admin/products/"+productID+"/active", adminToken, map[string]any{
		"isActive": false,
	})
	require.Equal(t, 200, status)

	status, _ = st.GetJSON("/api/products/"+productID, "")
	require.Equal(t, 404, status)

	status, _ = st.PostJSON("/api/admin/products", adminToken, map[string]any{
		"name":        "Catégorie inconnue",
		"description": gofakeit.Sentence(8),
		"price":       10.0,
		"category":    "Gadgets",
	})
	require.Equal(t, 400, status)
}

func TestOrderCheckout(t *testing.T) {
	ctx, st := suite.New(t)

	adminToken := adminLogin(ctx, st)

	status, resp := st.PostJSON("/api/admin/products", adminToken, map[string]any{
		"name":        "Jupe plissée",
		"description": gofakeit.Sentence(10),
		"price":       45.50,
		"category":    "Jupes",
		"sizes":       []string{"S", "M"},
		"stock":       10,
	})
	require.Equal(t, 201, status)
	productID := resp["productId"].(string)

	customerToken, _ := registerAndLogin(st)

	status, resp = st.PostJSON("/api/orders", customerToken, map[string]any{
		"items": []map[string]any{
			{"productId": productID, "quantity": 2, "size": "M"},
		},
		"shippingAddress": map[string]any{
			"street":     gofakeit.Street(),
			"city":       "Paris",
			"postalCode": "75001",
			"country":    "France",
		},
	})
	require.Equal(t, 201, status)

	order := resp["order"].(map[string]any)
	orderID := order["id"].(string)
	assert.Equal(t, "pending", order["status"])
	assert.InDelta(t, 91.0, order["total"].(float64), 0.01)
	assert.Contains(t, order["number"].(string), "ORD-")

	// The owner sees the order; another customer does not.
	status, _ = st.GetJSON("/api/orders/"+orderID, customerToken)
	require.Equal(t, 200, status)

	otherToken, _ := registerAndLogin(st)
	status, _ = st.GetJSON("/api/orders/"+orderID, otherToken)
	require.Equal(t, 403, status)

	status, resp = st.GetJSON("/api/orders", customerToken)
	require.Equal(t, 200, status)
	require.Len(t, resp["orders"].([]any), 1)

	// Admin moves the order along.
	status, _ = st.PatchJSON("/api/admin/orders/"+orderID+"/status", adminToken, map[string]any{
		"status": "paid",
	})
	require.Equal(t, 200, status)

	status, _ = st.PatchJSON("/api/admin/orders/"+orderID+"/status", adminToken, map[string]any{
		"status": "teleported",
	})
	require.Equal(t, 400, status)

	status, resp = st.GetJSON("/api/admin/stats", adminToken)
	require.Equal(t, 200, status)
	stats := resp["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["orders"])
	assert.InDelta(t, 91.0, stats["revenue"].(float64), 0.01)

	// An empty cart is rejected.
	status, _ = st.PostJSON("/api/orders", customerToken, map[string]any{
		"items":           []map[string]any{},
		"shippingAddress": map[string]any{},
	})
	require.Equal(t, 400, status)
}
