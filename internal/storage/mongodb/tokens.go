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
)

type refreshTokenDoc struct {
	Token           string     `bson:"token"`
	UserID          string     `bson:"user_id"`
	CreatedAt       time.Time  `bson:"created_at"`
	ExpiresAt       time.Time  `bson:"expires_at"`
	CreatedByIP     string     `bson:"created_by_ip,omitempty"`
	RevokedAt       *time.Time `bson:"revoked_at,omitempty"`
	RevokedByIP     string     `bson:"revoked_by_ip,omitempty"`
	ReplacedByToken string     `bson:"replaced_by_token,omitempty"`
}

func (d *refreshTokenDoc) toModel() *models.RefreshToken {
	return &models.RefreshToken{
		Token:           d.Token,
		UserID:          d.UserID,
		CreatedAt:       d.CreatedAt,
		ExpiresAt:       d.ExpiresAt,
		CreatedByIP:     d.CreatedByIP,
		RevokedAt:       d.RevokedAt,
		RevokedByIP:     d.RevokedByIP,
		ReplacedByToken: d.ReplacedByToken,
	}
}

// SaveRefreshToken stores a newly issued refresh token.
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.mongodb.SaveRefreshToken"

	doc := refreshTokenDoc{
		Token:       token.Token,
		UserID:      token.UserID,
		CreatedAt:   token.CreatedAt,
		ExpiresAt:   token.ExpiresAt,
		CreatedByIP: token.CreatedByIP,
	}

	_, err := s.tokens.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshToken retrieves a refresh token record by its exact token string.
func (s *Storage) RefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const op = "storage.mongodb.RefreshToken"

	var doc refreshTokenDoc
	err := s.tokens.FindOne(ctx, bson.D{{Key: "token", Value: token}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// RevokeRefreshToken stamps revocation metadata on the token. Re-revoking an
// already revoked token overwrites the stamp (last write wins).
func (s *Storage) RevokeRefreshToken(ctx context.Context, token string, revokedAt time.Time, ip, replacedBy string) error {
	const op = "storage.mongodb.RevokeRefreshToken"

	set := bson.D{
		{Key: "revoked_at", Value: revokedAt},
		{Key: "revoked_by_ip", Value: ip},
	}
	if replacedBy != "" {
		set = append(set, bson.E{Key: "replaced_by_token", Value: replacedBy})
	}

	res, err := s.tokens.UpdateOne(ctx,
		bson.D{{Key: "token", Value: token}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
	}

	return nil
}

// RevokeAllForUser stamps revocation on every still-unrevoked token owned by
// the user. Already revoked rows keep their original stamp.
func (s *Storage) RevokeAllForUser(ctx context.Context, userID string, revokedAt time.Time) (int64, error) {
	const op = "storage.mongodb.RevokeAllForUser"

	res, err := s.tokens.UpdateMany(ctx,
		bson.D{
			{Key: "user_id", Value: userID},
			{Key: "revoked_at", Value: nil},
		},
		bson.D{{Key: "$set", Value: bson.D{{Key: "revoked_at", Value: revokedAt}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return res.ModifiedCount, nil
}
