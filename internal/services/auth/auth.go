package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"boutique/internal/domain/models"
	"boutique/internal/lib/sl"
	"boutique/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxLoginAttempts = 5
	lockDuration     = 2 * time.Hour

	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountLocked      = errors.New("account locked")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrSessionExpired     = errors.New("session expired")
)

type UserSaver interface {
	SaveUser(ctx context.Context, user *models.User) (string, error)
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, userID string) (*models.User, error)
	UserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	UserByResetToken(ctx context.Context, token string) (*models.User, error)
}

type UserUpdater interface {
	UpdateUser(ctx context.Context, user *models.User) error
}

// Sessions is the session core as consumed by the login/refresh/logout flows.
type Sessions interface {
	IssueAccessToken(userID, email, role string) (string, error)
	IssueRefreshToken(ctx context.Context, userID, ip string) (*models.RefreshToken, error)
	VerifyRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token, ip string) (*models.RefreshToken, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	RotateRefreshToken(ctx context.Context, oldToken, ip string) (*models.RefreshToken, error)
}

// Mailer delivers the account lifecycle emails.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, name, email, token string) error
	SendPasswordResetEmail(ctx context.Context, name, email, token string) error
}

type Auth struct {
	logger       *slog.Logger
	userSaver    UserSaver
	userProvider UserProvider
	userUpdater  UserUpdater
	sessions     Sessions
	mailer       Mailer
	now          func() time.Time
}

// TokenPair is what a successful login or refresh hands back to the gateway.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// New returns a new instance of the Auth service.
func New(
	logger *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	userUpdater UserUpdater,
	sessions Sessions,
	mailer Mailer,
) *Auth {
	return &Auth{
		logger:       logger,
		userSaver:    userSaver,
		userProvider: userProvider,
		userUpdater:  userUpdater,
		sessions:     sessions,
		mailer:       mailer,
		now:          time.Now,
	}
}

// Register creates an unverified account and emails a verification link.
func (a *Auth) Register(ctx context.Context, name, email, password string) (string, error) {
	const op = "auth.Register"
	log := a.logger.With(slog.String("op", op), slog.String("email", email))
	log.Info("register request")

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	verTok := uuid.NewString()
	verExp := a.now().Add(verificationTokenTTL)

	user := &models.User{
		Name:                     name,
		Email:                    strings.ToLower(strings.TrimSpace(email)),
		PassHash:                 passHash,
		Role:                     models.RoleCustomer,
		VerificationToken:        verTok,
		VerificationTokenExpires: &verExp,
	}

	userID, err := a.userSaver.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			log.Warn("user already exists")
			return "", fmt.Errorf("%s: %w", op, ErrUserAlreadyExists)
		}
		log.Error("failed to save user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := a.mailer.SendVerificationEmail(ctx, name, user.Email, verTok); err != nil {
		// The account exists either way; the user can request a resend.
		log.Warn("failed to send verification email", sl.Err(err))
	}

	log.Info("user registered", slog.String("userID", userID))

	return userID, nil
}

// VerifyEmail activates the account matching a pending verification token.
func (a *Auth) VerifyEmail(ctx context.Context, token string) error {
	const op = "auth.VerifyEmail"
	log := a.logger.With(slog.String("op", op))

	user, err := a.userProvider.UserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("verification token not found")
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.VerificationTokenExpires == nil || a.now().After(*user.VerificationTokenExpires) {
		log.Warn("verification token expired", slog.String("userID", user.ID))
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user.IsVerified = true
	user.VerificationToken = ""
	user.VerificationTokenExpires = nil

	if err := a.userUpdater.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.String("userID", user.ID))

	return nil
}

// Login authenticates a user and mints an access/refresh token pair. Failed
// attempts count toward a temporary lockout.
func (a *Auth) Login(ctx context.Context, email, password, ip string) (*TokenPair, error) {
	const op = "auth.Login"
	log := a.logger.With(slog.String("op", op), slog.String("email", email))
	log.Info("login request")

	user, err := a.userProvider.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := a.now()

	if user.Locked(now) {
		log.Warn("account locked", slog.String("userID", user.ID))
		return nil, fmt.Errorf("%s: %w", op, ErrAccountLocked)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		a.recordFailedAttempt(ctx, log, user, now)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.IsVerified {
		log.Warn("email not verified", slog.String("userID", user.ID))
		return nil, fmt.Errorf("%s: %w", op, ErrNotVerified)
	}

	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now
	if err := a.userUpdater.UpdateUser(ctx, user); err != nil {
		log.Warn("failed to reset login attempts", sl.Err(err))
	}

	accessToken, err := a.sessions.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("failed to issue access token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := a.sessions.IssueRefreshToken(ctx, user.ID, ip)
	if err != nil {
		log.Error("failed to issue refresh token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.String("userID", user.ID))

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
	}, nil
}

func (a *Auth) recordFailedAttempt(ctx context.Context, log *slog.Logger, user *models.User, now time.Time) {
	// A lock that has lapsed restarts the counter.
	if user.LockUntil != nil && !user.LockUntil.After(now) {
		user.LoginAttempts = 0
		user.LockUntil = nil
	}

	user.LoginAttempts++
	if user.LoginAttempts >= maxLoginAttempts && user.LockUntil == nil {
		lockUntil := now.Add(lockDuration)
		user.LockUntil = &lockUntil
		log.Warn("account locked after repeated failures", slog.String("userID", user.ID))
	}

	if err := a.userUpdater.UpdateUser(ctx, user); err != nil {
		log.Warn("failed to record login attempt", sl.Err(err))
	}

	log.Warn("invalid password", slog.Int("attempts", user.LoginAttempts))
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// refresh token. The role is re-read from the credential store so a role
// change takes effect at the next refresh.
func (a *Auth) Refresh(ctx context.Context, refreshToken, ip string) (*TokenPair, error) {
	const op = "auth.Refresh"
	log := a.logger.With(slog.String("op", op))
	log.Info("refresh request")

	record, err := a.sessions.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		log.Error("ledger lookup failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if record == nil {
		log.Warn("refresh token rejected")
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	user, err := a.userProvider.UserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user behind refresh token no longer exists")
			return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
		}
		log.Error("failed to get user", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := a.sessions.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("failed to issue access token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	successor, err := a.sessions.RotateRefreshToken(ctx, refreshToken, ip)
	if err != nil {
		log.Error("failed to rotate refresh token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if successor == nil {
		// Raced with a concurrent revocation between verify and rotate.
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	log.Info("tokens refreshed", slog.String("userID", user.ID))

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: successor.Token,
	}, nil
}

// Logout revokes the given refresh token. An unknown token is a caller
// logic error, distinct from an expired session.
func (a *Auth) Logout(ctx context.Context, refreshToken, ip string) error {
	const op = "auth.Logout"

	if _, err := a.sessions.RevokeRefreshToken(ctx, refreshToken, ip); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// LogoutEverywhere revokes every active session for the user.
func (a *Auth) LogoutEverywhere(ctx context.Context, userID string) (int64, error) {
	const op = "auth.LogoutEverywhere"

	count, err := a.sessions.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

// RequestPasswordReset emails a reset link when the account exists. An
// unknown email is reported to the caller as success to avoid account
// enumeration.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "auth.RequestPasswordReset"
	log := a.logger.With(slog.String("op", op), slog.String("email", email))

	user, err := a.userProvider.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	resetTok := uuid.NewString()
	resetExp := a.now().Add(resetTokenTTL)
	user.ResetPasswordToken = resetTok
	user.ResetPasswordExpires = &resetExp

	if err := a.userUpdater.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.mailer.SendPasswordResetEmail(ctx, user.Name, user.Email, resetTok); err != nil {
		log.Warn("failed to send reset email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset email sent", slog.String("userID", user.ID))

	return nil
}

// ResetPassword sets a new password from a pending reset token and logs the
// user out everywhere.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"
	log := a.logger.With(slog.String("op", op))

	user, err := a.userProvider.UserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.ResetPasswordExpires == nil || a.now().After(*user.ResetPasswordExpires) {
		log.Warn("reset token expired", slog.String("userID", user.ID))
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user.PassHash = passHash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	user.LoginAttempts = 0
	user.LockUntil = nil

	if err := a.userUpdater.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := a.sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		log.Warn("failed to revoke sessions after password reset", sl.Err(err))
	}

	log.Info("password reset", slog.String("userID", user.ID))

	return nil
}

// User returns the profile behind an authenticated user ID.
func (a *Auth) User(ctx context.Context, userID string) (*models.User, error) {
	const op = "auth.User"

	user, err := a.userProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
