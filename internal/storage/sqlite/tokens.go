package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"boutique/internal/domain/models"
	"boutique/internal/storage"
)

// SaveRefreshToken stores a newly issued refresh token.
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.sqlite.SaveRefreshToken"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, user_id, created_at, expires_at, created_by_ip)
		VALUES (?, ?, ?, ?, ?)`,
		token.Token, token.UserID, token.CreatedAt, token.ExpiresAt, token.CreatedByIP,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RefreshToken retrieves a refresh token record by its exact token string.
func (s *Storage) RefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const op = "storage.sqlite.RefreshToken"

	row := s.db.QueryRowContext(ctx, `
		SELECT token, user_id, created_at, expires_at, created_by_ip,
		       revoked_at, revoked_by_ip, replaced_by_token
		FROM refresh_tokens WHERE token = ?`, token)

	var (
		t                       models.RefreshToken
		revokedAt               sql.NullTime
		revokedByIP, replacedBy sql.NullString
	)
	err := row.Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.CreatedByIP,
		&revokedAt, &revokedByIP, &replacedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	t.RevokedByIP = revokedByIP.String
	t.ReplacedByToken = replacedBy.String

	return &t, nil
}

// RevokeRefreshToken stamps revocation metadata on the token. Re-revoking an
// already revoked token overwrites the stamp (last write wins).
func (s *Storage) RevokeRefreshToken(ctx context.Context, token string, revokedAt time.Time, ip, replacedBy string) error {
	const op = "storage.sqlite.RevokeRefreshToken"

	res, err := s.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = ?, revoked_by_ip = ?,
		    replaced_by_token = COALESCE(NULLIF(?, ''), replaced_by_token)
		WHERE token = ?`,
		revokedAt, ip, replacedBy, token,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
	}
	return nil
}

// RevokeAllForUser stamps revocation on every still-unrevoked token owned by
// the user. Already revoked rows keep their original stamp.
func (s *Storage) RevokeAllForUser(ctx context.Context, userID string, revokedAt time.Time) (int64, error) {
	const op = "storage.sqlite.RevokeAllForUser"

	res, err := s.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = ?
		WHERE user_id = ? AND revoked_at IS NULL`,
		revokedAt, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// PurgeExpiredTokens deletes rows past their expiry. Mongo does this with a
// TTL index; for sqlite it runs from the migrator's housekeeping flag.
func (s *Storage) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.sqlite.PurgeExpiredTokens"

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
