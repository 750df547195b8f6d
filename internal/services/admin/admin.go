package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"boutique/internal/domain/models"
	"boutique/internal/storage"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrAlreadyVerified = errors.New("user already verified")
	ErrInvalidRole     = errors.New("invalid role")
	ErrSelfDelete      = errors.New("cannot delete own account")
)

type StatsStore interface {
	CountUsers(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, float64, error)
	Orders(ctx context.Context, offset, limit int64) ([]*models.Order, error)
	Users(ctx context.Context, offset, limit int64) ([]*models.User, error)
}

// UserStore is the slice of the user store the admin surface mutates.
type UserStore interface {
	UserByID(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error
}

type Admin struct {
	logger *slog.Logger
	store  StatsStore
	users  UserStore
}

// Stats is the dashboard summary.
type Stats struct {
	Users        int64
	Products     int64
	Orders       int64
	Revenue      float64
	RecentOrders []*models.Order
}

func New(logger *slog.Logger, store StatsStore, users UserStore) *Admin {
	return &Admin{logger: logger, store: store, users: users}
}

// Stats gathers the dashboard counters and the five most recent orders.
func (a *Admin) Stats(ctx context.Context) (*Stats, error) {
	const op = "admin.Stats"

	users, err := a.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := a.store.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, revenue, err := a.store.CountOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	recent, err := a.store.Orders(ctx, 0, 5)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Stats{
		Users:        users,
		Products:     products,
		Orders:       orders,
		Revenue:      revenue,
		RecentOrders: recent,
	}, nil
}

// Users lists registered users for the admin user management view.
func (a *Admin) Users(ctx context.Context, page, limit int64) ([]*models.User, error) {
	const op = "admin.Users"

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, err := a.store.Users(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// VerifyUser marks an account as verified without the email round trip and
// clears any pending verification token.
func (a *Admin) VerifyUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "admin.VerifyUser"

	user, err := a.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.IsVerified {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyVerified)
	}

	user.IsVerified = true
	user.VerificationToken = ""
	user.VerificationTokenExpires = nil

	if err := a.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.logger.Info("user verified by admin",
		slog.String("userID", userID),
		slog.String("email", user.Email))

	return user, nil
}

// SetRole changes a user's role. Only the customer and admin roles exist.
// The change takes effect on the user's next token refresh.
func (a *Admin) SetRole(ctx context.Context, userID, role string) (*models.User, error) {
	const op = "admin.SetRole"

	if role != models.RoleCustomer && role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRole)
	}

	user, err := a.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.Role = role
	if err := a.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.logger.Info("user role changed",
		slog.String("userID", userID),
		slog.String("role", role))

	return user, nil
}

// DeleteUser removes an account and its refresh tokens. actorID is the
// calling admin; admins cannot delete themselves.
func (a *Admin) DeleteUser(ctx context.Context, actorID, userID string) error {
	const op = "admin.DeleteUser"

	if actorID == userID {
		return fmt.Errorf("%s: %w", op, ErrSelfDelete)
	}

	if err := a.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	a.logger.Info("user deleted by admin", slog.String("userID", userID))

	return nil
}
