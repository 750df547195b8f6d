package httpapi

import (
	"log/slog"
	"net/http"

	"boutique/internal/services/admin"
	"boutique/internal/services/auth"
	"boutique/internal/services/catalog"
	"boutique/internal/services/orders"
)

// NewRouter assembles the public, authenticated and admin route groups.
// frontendURL is the storefront origin allowed to call the API from a
// browser.
func NewRouter(
	logger *slog.Logger,
	frontendURL string,
	verifier TokenVerifier,
	authService *auth.Auth,
	catalogService *catalog.Catalog,
	ordersService *orders.Orders,
	adminService *admin.Admin,
) http.Handler {
	mux := http.NewServeMux()

	authH := &authHandler{auth: authService}
	catalogH := &catalogHandler{catalog: catalogService}
	ordersH := &ordersHandler{orders: ordersService}
	adminH := &adminHandler{admin: adminService, catalog: catalogService, orders: ordersService}

	authed := Authenticate(verifier)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authed(RequireAdmin(h))
	}

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{"success": true, "status": "ok"})
	})

	mux.HandleFunc("POST /api/auth/register", authH.register)
	mux.HandleFunc("POST /api/auth/login", authH.login)
	mux.HandleFunc("POST /api/auth/refresh", authH.refresh)
	mux.HandleFunc("POST /api/auth/logout", authH.logout)
	mux.Handle("POST /api/auth/logout-all", authed(http.HandlerFunc(authH.logoutAll)))
	mux.HandleFunc("GET /api/auth/verify-email", authH.verifyEmail)
	mux.HandleFunc("POST /api/auth/forgot-password", authH.forgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", authH.resetPassword)
	mux.Handle("GET /api/auth/me", authed(http.HandlerFunc(authH.me)))

	mux.HandleFunc("GET /api/products", catalogH.list)
	mux.HandleFunc("GET /api/products/featured", catalogH.featured)
	mux.HandleFunc("GET /api/products/categories", catalogH.categories)
	mux.HandleFunc("GET /api/products/{id}", catalogH.get)

	mux.Handle("POST /api/orders", authed(http.HandlerFunc(ordersH.create)))
	mux.Handle("GET /api/orders", authed(http.HandlerFunc(ordersH.listMine)))
	mux.Handle("GET /api/orders/{id}", authed(http.HandlerFunc(ordersH.get)))

	mux.Handle("GET /api/admin/stats", adminOnly(adminH.stats))
	mux.Handle("GET /api/admin/users", adminOnly(adminH.users))
	mux.Handle("PATCH /api/admin/users/{id}/verify", adminOnly(adminH.verifyUser))
	mux.Handle("PATCH /api/admin/users/{id}/role", adminOnly(adminH.setUserRole))
	mux.Handle("DELETE /api/admin/users/{id}", adminOnly(adminH.deleteUser))
	mux.Handle("GET /api/admin/orders", adminOnly(adminH.listOrders))
	mux.Handle("PATCH /api/admin/orders/{id}/status", adminOnly(adminH.updateOrderStatus))
	mux.Handle("GET /api/admin/products", adminOnly(adminH.listProducts))
	mux.Handle("POST /api/admin/products", adminOnly(adminH.createProduct))
	mux.Handle("PUT /api/admin/products/{id}", adminOnly(adminH.updateProduct))
	mux.Handle("DELETE /api/admin/products/{id}", adminOnly(adminH.deleteProduct))
	mux.Handle("PATCH /api/admin/products/{id}/active", adminOnly(adminH.setProductActive))

	return RequestLogger(logger)(CORS(frontendURL)(mux))
}
