package tests

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain/models"
	"boutique/tests/suite"
)

func TestAdminVerifiesUser(t *testing.T) {
	ctx, st := suite.New(t)

	adminToken := adminLogin(ctx, st)

	email := gofakeit.Email()
	password := randomPassword()
	status, _ := st.PostJSON("/api/auth/register", "", map[string]any{
		"name":     gofakeit.Name(),
		"email":    email,
		"password": password,
	})
	require.Equal(t, 201, status)

	// Unverified accounts cannot log in.
	status, _ = st.PostJSON("/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, 403, status)

	user, err := st.Storage.UserByEmail(ctx, normalize(email))
	require.NoError(t, err)

	status, resp := st.PatchJSON("/api/admin/users/"+user.ID+"/verify", adminToken, nil)
	require.Equal(t, 200, status)
	assert.Equal(t, true, resp["user"].(map[string]any)["isVerified"])

	// Verifying twice is rejected.
	status, _ = st.PatchJSON("/api/admin/users/"+user.ID+"/verify", adminToken, nil)
	require.Equal(t, 400, status)

	status, _ = st.PatchJSON("/api/admin/users/does-not-exist/verify", adminToken, nil)
	require.Equal(t, 404, status)

	// The user can log in now.
	status, _ = st.PostJSON("/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, 200, status)
}

func TestAdminChangesUserRole(t *testing.T) {
	ctx, st := suite.New(t)

	adminToken := adminLogin(ctx, st)

	email := gofakeit.Email()
	password := randomPassword()
	registerAndVerify(st, email, password)

	status, resp := st.PostJSON("/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, 200, status)
	customerRefresh := resp["refreshToken"].(string)

	user, err := st.Storage.UserByEmail(ctx, normalize(email))
	require.NoError(t, err)
	customerID := user.ID

	status, _ = st.PatchJSON("/api/admin/users/"+customerID+"/role", adminToken, map[string]any{
		"role": "superuser",
	})
	require.Equal(t, 400, status)

	status, resp = st.PatchJSON("/api/admin/users/"+customerID+"/role", adminToken, map[string]any{
		"role": models.RoleAdmin,
	})
	require.Equal(t, 200, status)
	assert.Equal(t, models.RoleAdmin, resp["user"].(map[string]any)["role"])

	// The promotion lands in the next refreshed access token.
	status, resp = st.PostJSON("/api/auth/refresh", "", map[string]any{
		"refreshToken": customerRefresh,
	})
	require.Equal(t, 200, status)
	promoted := resp["accessToken"].(string)

	status, _ = st.GetJSON("/api/admin/stats", promoted)
	require.Equal(t, 200, status)
}

func TestAdminDeletesUser(t *testing.T) {
	ctx, st := suite.New(t)

	adminToken := adminLogin(ctx, st)

	status, resp := st.GetJSON("/api/auth/me", adminToken)
	require.Equal(t, 200, status)
	adminID := resp["user"].(map[string]any)["id"].(string)

	// Admins cannot delete themselves.
	status, _ = st.DeleteJSON("/api/admin/users/"+adminID, adminToken)
	require.Equal(t, 400, status)

	email := gofakeit.Email()
	password := randomPassword()
	registerAndVerify(st, email, password)

	user, err := st.Storage.UserByEmail(ctx, normalize(email))
	require.NoError(t, err)

	status, _ = st.DeleteJSON("/api/admin/users/"+user.ID, adminToken)
	require.Equal(t, 200, status)

	// The account is gone.
	status, _ = st.PostJSON("/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, 401, status)

	status, _ = st.DeleteJSON("/api/admin/users/"+user.ID, adminToken)
	require.Equal(t, 404, status)
}

func TestAdminProductListIncludesInactive(t *testing.T) {
	ctx, st := suite.New(t)

	adminToken := adminLogin(ctx, st)

	status, resp := st.PostJSON("/api/admin/products", adminToken, map[string]any{
		"name":        "Jupe plissée",
		"description": "Jupe plissée midi, taille haute.",
		"price":       59.90,
		"category":    "Jupes",
	})
	require.Equal(t, 201, status)
	productID := resp["productId"].(string)

	status, _ = st.PatchJSON("/api/admin/products/"+productID+"/active", adminToken, map[string]any{
		"isActive": false,
	})
	require.Equal(t, 200, status)

	// Gone from the storefront.
	status, _ = st.GetJSON("/api/products/"+productID, "")
	require.Equal(t, 404, status)

	// Still on the dashboard.
	status, resp = st.GetJSON("/api/admin/products", adminToken)
	require.Equal(t, 200, status)

	products := resp["products"].([]any)
	require.NotEmpty(t, products)

	var found bool
	for _, raw := range products {
		p := raw.(map[string]any)
		if p["id"] == productID {
			found = true
			assert.Equal(t, false, p["isActive"])
		}
	}
	assert.True(t, found)
}
