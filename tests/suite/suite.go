package suite

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"boutique/internal/config"
	"boutique/internal/httpapi"
	"boutique/internal/services/admin"
	"boutique/internal/services/auth"
	"boutique/internal/services/catalog"
	"boutique/internal/services/orders"
	"boutique/internal/services/session"
	"boutique/internal/storage/sqlite"
)

// Suite runs the whole service in-process against a throwaway SQLite
// database, exposing the HTTP surface plus direct storage access for
// fixtures and assertions.
type Suite struct {
	*testing.T
	Cfg     *config.Config
	URL     string
	Client  *http.Client
	Storage *sqlite.Storage
	Mail    *MailRecorder
}

// MailRecorder captures outgoing emails instead of delivering them.
type MailRecorder struct {
	VerificationTokens map[string]string
	ResetTokens        map[string]string
}

func (m *MailRecorder) SendVerificationEmail(_ context.Context, _, email, token string) error {
	m.VerificationTokens[email] = token
	return nil
}

func (m *MailRecorder) SendPasswordResetEmail(_ context.Context, _, email, token string) error {
	m.ResetTokens[email] = token
	return nil
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()
	t.Parallel()

	cfg := config.LoadConfig("../config/test.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "boutique.db")
	applyMigrations(t, dbPath)

	storage, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sessions, err := session.New(logger, storage, session.Config{
		AccessSecret:  cfg.Tokens.AccessSecret,
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshSecret: cfg.Tokens.RefreshSecret,
		RefreshTTL:    cfg.Tokens.RefreshTTL,
	})
	if err != nil {
		t.Fatalf("failed to build session core: %v", err)
	}

	mail := &MailRecorder{
		VerificationTokens: make(map[string]string),
		ResetTokens:        make(map[string]string),
	}

	authService := auth.New(logger, storage, storage, storage, sessions, mail)
	catalogService := catalog.New(logger, storage)
	ordersService := orders.New(logger, storage, storage)
	adminService := admin.New(logger, storage, storage)

	router := httpapi.NewRouter(logger, cfg.FrontendURL, sessions, authService, catalogService, ordersService, adminService)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return ctx, &Suite{
		T:       t,
		Cfg:     cfg,
		URL:     server.URL,
		Client:  server.Client(),
		Storage: storage,
		Mail:    mail,
	}
}

func applyMigrations(t *testing.T, dbPath string) {
	t.Helper()

	m, err := migrate.New("file://../migrations", "sqlite3://"+dbPath)
	if err != nil {
		t.Fatalf("failed to init migrations: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		t.Fatalf("failed to close migrator: %v / %v", srcErr, dbErr)
	}
}

// PostJSON sends a JSON body and decodes the JSON response. An empty token
// leaves the request unauthenticated.
func (s *Suite) PostJSON(path, token string, body any) (int, map[string]any) {
	s.Helper()
	return s.doJSON(http.MethodPost, path, token, body)
}

func (s *Suite) PatchJSON(path, token string, body any) (int, map[string]any) {
	s.Helper()
	return s.doJSON(http.MethodPatch, path, token, body)
}

func (s *Suite) GetJSON(path, token string) (int, map[string]any) {
	s.Helper()
	return s.doJSON(http.MethodGet, path, token, nil)
}

func (s *Suite) DeleteJSON(path, token string) (int, map[string]any) {
	s.Helper()
	return s.doJSON(http.MethodDelete, path, token, nil)
}

func (s *Suite) doJSON(method, path, token string, body any) (int, map[string]any) {
	s.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		s.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		s.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.Fatalf("failed to decode response: %v", err)
	}

	return resp.StatusCode, payload
}
