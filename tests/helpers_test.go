package tests

import (
	"context"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain/models"
	"boutique/tests/suite"
)

func randomPassword() string {
	return gofakeit.Password(true, true, true, true, false, passDefaultLen)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func registerAndVerify(st *suite.Suite, email, password string) {
	st.Helper()

	status, _ := st.PostJSON("/api/auth/register", "", map[string]any{
		"name":     gofakeit.Name(),
		"email":    email,
		"password": password,
	})
	require.Equal(st.T, 201, status)

	verTok := st.Mail.VerificationTokens[normalize(email)]
	require.NotEmpty(st.T, verTok)

	status, _ = st.GetJSON("/api/auth/verify-email?token="+verTok, "")
	require.Equal(st.T, 200, status)
}

func registerAndLogin(st *suite.Suite) (accessToken, refreshToken string) {
	st.Helper()

	email := gofakeit.Email()
	password := randomPassword()
	registerAndVerify(st, email, password)

	status, resp := st.PostJSON("/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(st.T, 200, status)

	return resp["accessToken"].(string), resp["refreshToken"].(string)
}

// adminLogin creates a verified admin account directly in storage and logs
// in over HTTP.
func adminLogin(ctx context.Context, st *suite.Suite) (accessToken string) {
	st.Helper()

	email := gofakeit.Email()
	password := randomPassword()
	registerAndVerify(st, email, password)

	user, err := st.Storage.UserByEmail(ctx, normalize(email))
	require.NoError(st.T, err)

	user.Role = models.RoleAdmin
	require.NoError(st.T, st.Storage.UpdateUser(ctx, user))

	status, resp := st.PostJSON("/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(st.T, 200, status)

	return resp["accessToken"].(string)
}
