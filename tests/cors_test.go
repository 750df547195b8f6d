package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/tests/suite"
)

func TestCORSPreflight(t *testing.T) {
	_, st := suite.New(t)

	// A browser preflight on a method-scoped route must be answered by the
	// gateway, not by the router's 405.
	req, err := http.NewRequest(http.MethodOptions, st.URL+"/api/orders", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", st.Cfg.FrontendURL)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

	resp, err := st.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, st.Cfg.FrontendURL, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORSHeadersOnAPIResponses(t *testing.T) {
	_, st := suite.New(t)

	req, err := http.NewRequest(http.MethodGet, st.URL+"/api/products", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", st.Cfg.FrontendURL)

	resp, err := st.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, st.Cfg.FrontendURL, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", resp.Header.Get("Vary"))
}
