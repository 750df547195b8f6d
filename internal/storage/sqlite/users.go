package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"boutique/internal/domain/models"
	"boutique/internal/storage"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// SaveUser saves a new user and returns the generated user ID.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) (string, error) {
	const op = "storage.sqlite.SaveUser"

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, name, email, pass_hash, role, is_verified,
			verification_token, verification_token_expires,
			phone, street, city, postal_code, country,
			login_attempts, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, user.Name, user.Email, user.PassHash, user.Role, user.IsVerified,
		nullStr(user.VerificationToken), user.VerificationTokenExpires,
		nullStr(user.Phone), nullStr(user.Address.Street), nullStr(user.Address.City),
		nullStr(user.Address.PostalCode), nullStr(user.Address.Country),
		time.Now(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return "", fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

const userColumns = `id, name, email, pass_hash, role, is_verified,
	verification_token, verification_token_expires,
	reset_password_token, reset_password_expires,
	phone, street, city, postal_code, country,
	last_login, login_attempts, lock_until, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u                                      models.User
		verTok, resetTok, phone                sql.NullString
		street, city, postalCode, country      sql.NullString
		verExp, resetExp, lastLogin, lockUntil sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PassHash, &u.Role, &u.IsVerified,
		&verTok, &verExp,
		&resetTok, &resetExp,
		&phone, &street, &city, &postalCode, &country,
		&lastLogin, &u.LoginAttempts, &lockUntil, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.VerificationToken = verTok.String
	u.ResetPasswordToken = resetTok.String
	u.Phone = phone.String
	u.Address = models.Address{
		Street:     street.String,
		City:       city.String,
		PostalCode: postalCode.String,
		Country:    country.String,
	}
	if verExp.Valid {
		u.VerificationTokenExpires = &verExp.Time
	}
	if resetExp.Valid {
		u.ResetPasswordExpires = &resetExp.Time
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	if lockUntil.Valid {
		u.LockUntil = &lockUntil.Time
	}
	return &u, nil
}

func (s *Storage) userBy(ctx context.Context, op, where string, arg any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userBy(ctx, "storage.sqlite.UserByEmail", "email = ?", email)
}

func (s *Storage) UserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.userBy(ctx, "storage.sqlite.UserByID", "id = ?", userID)
}

func (s *Storage) UserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return s.userBy(ctx, "storage.sqlite.UserByVerificationToken", "verification_token = ?", token)
}

func (s *Storage) UserByResetToken(ctx context.Context, token string) (*models.User, error) {
	return s.userBy(ctx, "storage.sqlite.UserByResetToken", "reset_password_token = ?", token)
}

// UpdateUser overwrites the mutable fields of an existing user.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage.sqlite.UpdateUser"

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			name = ?, pass_hash = ?, role = ?, is_verified = ?,
			verification_token = ?, verification_token_expires = ?,
			reset_password_token = ?, reset_password_expires = ?,
			phone = ?, street = ?, city = ?, postal_code = ?, country = ?,
			last_login = ?, login_attempts = ?, lock_until = ?
		WHERE id = ?`,
		user.Name, user.PassHash, user.Role, user.IsVerified,
		nullStr(user.VerificationToken), user.VerificationTokenExpires,
		nullStr(user.ResetPasswordToken), user.ResetPasswordExpires,
		nullStr(user.Phone), nullStr(user.Address.Street), nullStr(user.Address.City),
		nullStr(user.Address.PostalCode), nullStr(user.Address.Country),
		user.LastLogin, user.LoginAttempts, user.LockUntil,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

// DeleteUser removes the user row. Refresh tokens go with it through the
// foreign key cascade; orders survive as history.
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	const op = "storage.sqlite.DeleteUser"

	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

// Users lists users newest-first with offset pagination.
func (s *Storage) Users(ctx context.Context, offset, limit int64) ([]*models.User, error) {
	const op = "storage.sqlite.Users"

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func (s *Storage) CountUsers(ctx context.Context) (int64, error) {
	const op = "storage.sqlite.CountUsers"

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
