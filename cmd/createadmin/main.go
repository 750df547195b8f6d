package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"boutique/internal/config"
	"boutique/internal/domain/models"
	"boutique/internal/storage"
	"boutique/internal/storage/mongodb"
	"boutique/internal/storage/sqlite"
)

type userStore interface {
	SaveUser(ctx context.Context, user *models.User) (string, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

func main() {
	var configPath, name, email, password string
	flag.StringVar(&configPath, "config", "", "path to config file (or use CONFIG_PATH env)")
	flag.StringVar(&name, "name", "Administrateur", "admin display name")
	flag.StringVar(&email, "email", "", "admin email (required)")
	flag.StringVar(&password, "password", "", "admin password (required)")
	flag.Parse()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if email == "" || password == "" {
		log.Fatal("both -email and -password are required")
	}

	cfg := config.LoadConfig(configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store userStore
	switch cfg.Storage {
	case "sqlite":
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite storage: %v", err)
		}
		defer s.Close()
		store = s
	default:
		s, err := mongodb.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Fatalf("failed to connect to mongodb: %v", err)
		}
		defer s.Close(ctx)
		store = s
	}

	// An existing account is promoted rather than duplicated.
	if existing, err := store.UserByEmail(ctx, email); err == nil {
		existing.Role = models.RoleAdmin
		existing.IsVerified = true
		if err := store.UpdateUser(ctx, existing); err != nil {
			log.Fatalf("failed to promote user: %v", err)
		}
		log.Printf("Existing user %s promoted to admin", email)
		return
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		log.Fatalf("failed to look up user: %v", err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	id, err := store.SaveUser(ctx, &models.User{
		Name:       name,
		Email:      email,
		PassHash:   passHash,
		Role:       models.RoleAdmin,
		IsVerified: true,
	})
	if err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	log.Printf("Admin account created (id=%s, email=%s)", id, email)
}
