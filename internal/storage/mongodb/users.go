package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boutique/internal/domain/models"
	"boutique/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userDoc struct {
	ID                       bson.ObjectID `bson:"_id,omitempty"`
	Name                     string        `bson:"name"`
	Email                    string        `bson:"email"`
	PassHash                 []byte        `bson:"pass_hash"`
	Role                     string        `bson:"role"`
	IsVerified               bool          `bson:"is_verified"`
	VerificationToken        string        `bson:"verification_token,omitempty"`
	VerificationTokenExpires *time.Time    `bson:"verification_token_expires,omitempty"`
	ResetPasswordToken       string        `bson:"reset_password_token,omitempty"`
	ResetPasswordExpires     *time.Time    `bson:"reset_password_expires,omitempty"`
	Phone                    string        `bson:"phone,omitempty"`
	Address                  addressDoc    `bson:"address"`
	LastLogin                *time.Time    `bson:"last_login,omitempty"`
	LoginAttempts            int           `bson:"login_attempts"`
	LockUntil                *time.Time    `bson:"lock_until,omitempty"`
	CreatedAt                time.Time     `bson:"created_at"`
}

type addressDoc struct {
	Street     string `bson:"street,omitempty"`
	City       string `bson:"city,omitempty"`
	PostalCode string `bson:"postal_code,omitempty"`
	Country    string `bson:"country,omitempty"`
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:                       d.ID.Hex(),
		Name:                     d.Name,
		Email:                    d.Email,
		PassHash:                 d.PassHash,
		Role:                     d.Role,
		IsVerified:               d.IsVerified,
		VerificationToken:        d.VerificationToken,
		VerificationTokenExpires: d.VerificationTokenExpires,
		ResetPasswordToken:       d.ResetPasswordToken,
		ResetPasswordExpires:     d.ResetPasswordExpires,
		Phone:                    d.Phone,
		Address: models.Address{
			Street:     d.Address.Street,
			City:       d.Address.City,
			PostalCode: d.Address.PostalCode,
			Country:    d.Address.Country,
		},
		LastLogin:     d.LastLogin,
		LoginAttempts: d.LoginAttempts,
		LockUntil:     d.LockUntil,
		CreatedAt:     d.CreatedAt,
	}
}

// SaveUser saves a new user and returns the generated user ID.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) (string, error) {
	const op = "storage.mongodb.SaveUser"

	doc := userDoc{
		ID:                       bson.NewObjectID(),
		Name:                     user.Name,
		Email:                    user.Email,
		PassHash:                 user.PassHash,
		Role:                     user.Role,
		IsVerified:               user.IsVerified,
		VerificationToken:        user.VerificationToken,
		VerificationTokenExpires: user.VerificationTokenExpires,
		Address: addressDoc{
			Street:     user.Address.Street,
			City:       user.Address.City,
			PostalCode: user.Address.PostalCode,
			Country:    user.Address.Country,
		},
		Phone:     user.Phone,
		CreatedAt: time.Now(),
	}

	_, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if isDuplicateKeyError(err) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return doc.ID.Hex(), nil
}

// UserByEmail retrieves a user by email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.mongodb.UserByEmail"
	return s.findUser(ctx, op, bson.D{{Key: "email", Value: email}})
}

// UserByID retrieves a user by ID.
func (s *Storage) UserByID(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.mongodb.UserByID"

	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return s.findUser(ctx, op, bson.D{{Key: "_id", Value: oid}})
}

// UserByVerificationToken retrieves a user by its pending email verification token.
func (s *Storage) UserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	const op = "storage.mongodb.UserByVerificationToken"
	return s.findUser(ctx, op, bson.D{{Key: "verification_token", Value: token}})
}

// UserByResetToken retrieves a user by its pending password reset token.
func (s *Storage) UserByResetToken(ctx context.Context, token string) (*models.User, error) {
	const op = "storage.mongodb.UserByResetToken"
	return s.findUser(ctx, op, bson.D{{Key: "reset_password_token", Value: token}})
}

func (s *Storage) findUser(ctx context.Context, op string, filter bson.D) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toModel(), nil
}

// UpdateUser overwrites the mutable fields of an existing user.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage.mongodb.UpdateUser"

	oid, err := bson.ObjectIDFromHex(user.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: user.Name},
		{Key: "pass_hash", Value: user.PassHash},
		{Key: "role", Value: user.Role},
		{Key: "is_verified", Value: user.IsVerified},
		{Key: "verification_token", Value: user.VerificationToken},
		{Key: "verification_token_expires", Value: user.VerificationTokenExpires},
		{Key: "reset_password_token", Value: user.ResetPasswordToken},
		{Key: "reset_password_expires", Value: user.ResetPasswordExpires},
		{Key: "phone", Value: user.Phone},
		{Key: "address", Value: addressDoc{
			Street:     user.Address.Street,
			City:       user.Address.City,
			PostalCode: user.Address.PostalCode,
			Country:    user.Address.Country,
		}},
		{Key: "last_login", Value: user.LastLogin},
		{Key: "login_attempts", Value: user.LoginAttempts},
		{Key: "lock_until", Value: user.LockUntil},
	}}}

	res, err := s.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}

// DeleteUser removes the user document and every refresh token it owns.
// Orders survive as history.
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	const op = "storage.mongodb.DeleteUser"

	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	res, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	if _, err := s.tokens.DeleteMany(ctx, bson.D{{Key: "user_id", Value: userID}}); err != nil {
		return fmt.Errorf("%s: tokens: %w", op, err)
	}

	return nil
}

// Users lists users newest-first with offset pagination.
func (s *Storage) Users(ctx context.Context, offset, limit int64) ([]*models.User, error) {
	const op = "storage.mongodb.Users"

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := s.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var users []*models.User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// CountUsers returns the total number of users.
func (s *Storage) CountUsers(ctx context.Context) (int64, error) {
	const op = "storage.mongodb.CountUsers"

	n, err := s.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
