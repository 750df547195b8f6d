package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain/models"
	"boutique/internal/lib/jwt"
	"boutique/internal/storage"
)

const (
	accessSecret  = "test-access-secret"
	refreshSecret = "test-refresh-secret"
)

// fakeLedger is an in-memory TokenLedger keyed by the exact token string.
type fakeLedger struct {
	records map[string]*models.RefreshToken
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]*models.RefreshToken)}
}

func (l *fakeLedger) SaveRefreshToken(_ context.Context, token *models.RefreshToken) error {
	cp := *token
	l.records[token.Token] = &cp
	return nil
}

func (l *fakeLedger) RefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	record, ok := l.records[token]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	cp := *record
	return &cp, nil
}

func (l *fakeLedger) RevokeRefreshToken(_ context.Context, token string, revokedAt time.Time, ip, replacedBy string) error {
	record, ok := l.records[token]
	if !ok {
		return storage.ErrTokenNotFound
	}
	record.RevokedAt = &revokedAt
	record.RevokedByIP = ip
	if replacedBy != "" {
		record.ReplacedByToken = replacedBy
	}
	return nil
}

func (l *fakeLedger) RevokeAllForUser(_ context.Context, userID string, revokedAt time.Time) (int64, error) {
	var n int64
	for _, record := range l.records {
		if record.UserID == userID && record.RevokedAt == nil {
			at := revokedAt
			record.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func newTestSession(t *testing.T, ledger TokenLedger, at time.Time) *Session {
	t.Helper()

	s, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)), ledger, Config{
		AccessSecret:  accessSecret,
		AccessTTL:     time.Hour,
		RefreshSecret: refreshSecret,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	s.now = func() time.Time { return at }

	return s
}

// advance moves the service clock; token minting and verification follow it.
func advance(s *Session, to time.Time) {
	s.now = func() time.Time { return to }
}

func TestNew_MissingSecrets(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(logger, newFakeLedger(), Config{RefreshSecret: refreshSecret})
	require.ErrorIs(t, err, ErrMissingSecret)

	_, err = New(logger, newFakeLedger(), Config{AccessSecret: accessSecret})
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSession(t, newFakeLedger(), now)

	token, err := s.IssueAccessToken("user-1", "alice@example.com", "admin")
	require.NoError(t, err)

	claims := s.VerifyAccessToken(token)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestAccessToken_DefaultRole(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSession(t, newFakeLedger(), now)

	token, err := s.IssueAccessToken("user-1", "alice@example.com", "")
	require.NoError(t, err)

	claims := s.VerifyAccessToken(token)
	require.NotNil(t, claims)
	assert.Equal(t, models.RoleCustomer, claims.Role)
}

func TestVerifyAccessToken_NilOnAnyFailure(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSession(t, newFakeLedger(), now)

	assert.Nil(t, s.VerifyAccessToken(""))
	assert.Nil(t, s.VerifyAccessToken("garbage"))

	token, err := s.IssueAccessToken("user-1", "alice@example.com", "customer")
	require.NoError(t, err)

	advance(s, now.Add(time.Hour+time.Second))
	assert.Nil(t, s.VerifyAccessToken(token))
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := newFakeLedger()
	s := newTestSession(t, ledger, now)

	record, err := s.IssueRefreshToken(ctx, "user-1", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, "10.0.0.1", record.CreatedByIP)
	assert.Equal(t, now.Add(7*24*time.Hour), record.ExpiresAt)

	got, err := s.VerifyRefreshToken(ctx, record.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.Token, got.Token)
}

func TestIssueRefreshToken_UnknownIP(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSession(t, newFakeLedger(), now)

	record, err := s.IssueRefreshToken(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, "unknown", record.CreatedByIP)
}

func TestVerifyRefreshToken_FailureConditions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := newFakeLedger()
	s := newTestSession(t, ledger, now)

	// Bad signature.
	got, err := s.VerifyRefreshToken(ctx, "not-a-token")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Valid signature but no ledger record.
	orphan, err := jwt.NewRefreshToken("user-1", refreshSecret, time.Hour, now)
	require.NoError(t, err)
	got, err = s.VerifyRefreshToken(ctx, orphan)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Revoked record.
	record, err := s.IssueRefreshToken(ctx, "user-1", "10.0.0.1")
	require.NoError(t, err)
	_, err = s.RevokeRefreshToken(ctx, record.Token, "10.0.0.2")
	require.NoError(t, err)
	got, err = s.VerifyRefreshToken(ctx, record.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVerifyRefreshToken_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := newFakeLedger()
	s := newTestSession(t, ledger, now)

	record, err := s.IssueRefreshToken(ctx, "user-1", "10.0.0.1")
	require.NoError(t, err)

	// One millisecond before expiry the token still verifies.
	advance(s, record.ExpiresAt.Add(-time.Millisecond))
	got, err := s.VerifyRefreshToken(ctx, record.Token)
	require.NoError(t, err)
	assert.NotNil(t, got)

	// At the exact expiry instant it no longer does.
	advance(s, record.ExpiresAt)
	got, err = s.VerifyRefreshToken(ctx, record.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRevokeRefreshToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := newFakeLedger()
	s := newTestSession(t, ledger, now)

	record, err := s.IssueRefreshToken(ctx, "user-1", "10.0.0.1")
	require.NoError(t, err)

	revoked, err := s.RevokeRefreshToken(ctx, record.Token, "10.0.0.9")
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)
	assert.Equal(t, now, *revoked.RevokedAt)
	assert.Equal(t, "10.0.0.9", revoked.RevokedByIP)

	// Revoking again re-stamps; last write wins.
	later := now.Add(time.Minute)
	advance(s, later)
	revoked, err = s.RevokeRefreshToken(ctx, record.Token, "10.0.0.10")
	require.NoError(t, err)
	assert.Equal(t, later, *revoked.RevokedAt)
	assert.Equal(t, "10.0.0.10", revoked.RevokedByIP)
}

func TestRevokeRefreshToken_Unknown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSession(t, newFakeLedger(), now)

	_, err := s.RevokeRefreshToken(ctx, "never-issued", "10.0.0.1")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := newFakeLedger()
	s := newTestSession(t, ledger, now)

	for i := 0; i < 3; i++ {
		_, err := s.IssueRefreshToken(ctx, "user-1", "10.0.0.1")
		require.NoError(t, err)
	}
	other, err := s.IssueRefreshToken(ctx, "user-2", "10.0.0.1")
	require.NoError(t, err)

	count, err := s.RevokeAllForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// A second sweep finds nothing active.
	count, err = s.RevokeAllForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Another user's session survives.
	got, err := s.VerifyRefreshToken(ctx, other.Token)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRotateRefreshToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := newFakeLedger()
	s := newTestSession(t, ledger, now)

	record, err := s.IssueRefreshToken(ctx, "user-1", "10.0.0.1")
	require.NoError(t, err)

	advance(s, now.Add(time.Second))
	successor, err := s.RotateRefreshToken(ctx, record.Token, "10.0.0.2")
	require.NoError(t, err)
	require.NotNil(t, successor)
	assert.NotEqual(t, record.Token, successor.Token)
	assert.Equal(t, "user-1", successor.UserID)

	// The predecessor is revoked and points at its replacement.
	old, err := ledger.RefreshToken(ctx, record.Token)
	require.NoError(t, err)
	require.NotNil(t, old.RevokedAt)
	assert.Equal(t, successor.Token, old.ReplacedByToken)

	// Rotating the dead predecessor yields nothing.
	got, err := s.RotateRefreshToken(ctx, record.Token, "10.0.0.2")
	require.NoError(t, err)
	assert.Nil(t, got)
}
