package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"boutique/internal/domain/models"
	"boutique/internal/lib/jwt"
	"boutique/internal/lib/sl"
	"boutique/internal/storage"
)

// ipUnknown is recorded when the caller did not supply an originating address.
const ipUnknown = "unknown"

var (
	ErrMissingSecret = errors.New("signing secret is not configured")
	ErrTokenNotFound = errors.New("refresh token not found")
)

// TokenLedger persists issued refresh tokens with revocation and expiry
// metadata.
type TokenLedger interface {
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	RefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string, revokedAt time.Time, ip, replacedBy string) error
	RevokeAllForUser(ctx context.Context, userID string, revokedAt time.Time) (int64, error)
}

// Config holds the signing secrets and expiry policy for both token kinds.
// The ledger expiry and the embedded exp claim are both derived from
// RefreshTTL, so they always agree; the ledger record is authoritative.
type Config struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// Session issues, verifies, rotates and revokes access/refresh token pairs.
type Session struct {
	logger *slog.Logger
	ledger TokenLedger
	cfg    Config
	now    func() time.Time
}

// New returns a new Session service. Both secrets are required.
func New(logger *slog.Logger, ledger TokenLedger, cfg Config) (*Session, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Session{
		logger: logger,
		ledger: ledger,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

// IssueAccessToken mints a short-lived signed token embedding the user's
// identity and role. Stateless; nothing is persisted.
func (s *Session) IssueAccessToken(userID, email, role string) (string, error) {
	const op = "session.IssueAccessToken"

	if role == "" {
		role = models.RoleCustomer
	}

	token, err := jwt.NewAccessToken(userID, email, role, s.cfg.AccessSecret, s.cfg.AccessTTL, s.now())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// IssueRefreshToken mints a long-lived token bound only to the user ID and
// records it in the ledger. Persistence failures propagate to the caller;
// retries are the transport layer's concern.
func (s *Session) IssueRefreshToken(ctx context.Context, userID, ip string) (*models.RefreshToken, error) {
	const op = "session.IssueRefreshToken"

	if ip == "" {
		ip = ipUnknown
	}

	now := s.now()
	signed, err := jwt.NewRefreshToken(userID, s.cfg.RefreshSecret, s.cfg.RefreshTTL, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	record := &models.RefreshToken{
		Token:       signed,
		UserID:      userID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.RefreshTTL),
		CreatedByIP: ip,
	}

	if err := s.ledger.SaveRefreshToken(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return record, nil
}

// VerifyAccessToken checks signature and expiry and returns the claims, or
// nil on any verification failure. Callers treat nil as "unauthenticated"
// and never learn the cause; the reason is logged for diagnostics only.
func (s *Session) VerifyAccessToken(token string) *jwt.AccessClaims {
	claims, err := jwt.ParseAccessToken(token, s.cfg.AccessSecret, s.now())
	if err != nil {
		s.logger.Debug("access token rejected", sl.Err(err))
		return nil
	}
	return claims
}

// VerifyRefreshToken runs the two-phase check: cryptographic validity against
// the refresh secret, then an active ledger record for the exact token
// string. Returns nil if either phase fails. The ledger phase exists because
// the signature alone cannot reflect explicit revocation.
func (s *Session) VerifyRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const op = "session.VerifyRefreshToken"

	if _, err := jwt.ParseRefreshToken(token, s.cfg.RefreshSecret, s.now()); err != nil {
		s.logger.Debug("refresh token rejected", sl.Err(err))
		return nil, nil
	}

	record, err := s.ledger.RefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			s.logger.Debug("refresh token has no ledger record")
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !record.Active(s.now()) {
		s.logger.Debug("refresh token revoked or expired",
			slog.String("userID", record.UserID))
		return nil, nil
	}

	return record, nil
}

// RevokeRefreshToken stamps revocation on the token. Revoking an already
// revoked token re-stamps it (last write wins).
func (s *Session) RevokeRefreshToken(ctx context.Context, token, ip string) (*models.RefreshToken, error) {
	const op = "session.RevokeRefreshToken"

	if ip == "" {
		ip = ipUnknown
	}

	if err := s.ledger.RevokeRefreshToken(ctx, token, s.now(), ip, ""); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	record, err := s.ledger.RefreshToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("refresh token revoked", slog.String("userID", record.UserID))

	return record, nil
}

// RevokeAllForUser revokes every still-active refresh token owned by the
// user and returns the number revoked. Already revoked rows keep their
// original stamp.
func (s *Session) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	const op = "session.RevokeAllForUser"

	count, err := s.ledger.RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("revoked all refresh tokens",
		slog.String("userID", userID),
		slog.Int64("count", count))

	return count, nil
}

// RotateRefreshToken exchanges a valid refresh token for a successor. The
// predecessor is revoked with a reference to its replacement.
func (s *Session) RotateRefreshToken(ctx context.Context, oldToken, ip string) (*models.RefreshToken, error) {
	const op = "session.RotateRefreshToken"

	if ip == "" {
		ip = ipUnknown
	}

	record, err := s.VerifyRefreshToken(ctx, oldToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if record == nil {
		return nil, nil
	}

	successor, err := s.IssueRefreshToken(ctx, record.UserID, ip)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ledger.RevokeRefreshToken(ctx, oldToken, s.now(), ip, successor.Token); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return successor, nil
}
