package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"boutique/internal/config"
	"boutique/internal/domain/models"
	"boutique/internal/storage/mongodb"
	"boutique/internal/storage/sqlite"
)

func main() {
	var configPath, migrationsPath string
	var seedCatalog bool
	flag.StringVar(&configPath, "config", "", "path to config file (or use CONFIG_PATH env)")
	flag.StringVar(&migrationsPath, "migrations", "migrations", "path to migrations directory (sqlite only)")
	flag.BoolVar(&seedCatalog, "seed", false, "seed sample products into database")
	flag.Parse()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	cfg := config.LoadConfig(configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Storage {
	case "sqlite":
		migrateSQLite(ctx, cfg, migrationsPath, seedCatalog)
	default:
		migrateMongo(ctx, cfg, seedCatalog)
	}

	fmt.Println("Database initialization completed successfully")
}

func migrateMongo(ctx context.Context, cfg *config.Config, seedCatalog bool) {
	log.Println("Connecting to MongoDB...")

	storage, err := mongodb.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer storage.Close(ctx)

	log.Println("MongoDB connected, indexes created successfully")

	if seedCatalog {
		seedProducts(ctx, storage)
	}
}

func migrateSQLite(ctx context.Context, cfg *config.Config, migrationsPath string, seedCatalog bool) {
	m, err := migrate.New(
		"file://"+migrationsPath,
		"sqlite3://"+cfg.SQLitePath,
	)
	if err != nil {
		log.Fatalf("failed to init migrations: %v", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("No new migrations to apply")
		} else {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	} else {
		log.Println("Migrations applied")
	}

	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		log.Fatalf("failed to close migrator: %v / %v", srcErr, dbErr)
	}

	storage, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite storage: %v", err)
	}
	defer storage.Close()

	// SQLite has no TTL index, so expired ledger rows are purged here.
	purged, err := storage.PurgeExpiredTokens(ctx, time.Now())
	if err != nil {
		log.Fatalf("failed to purge expired tokens: %v", err)
	}
	log.Printf("Purged %d expired refresh tokens", purged)

	if seedCatalog {
		seedProducts(ctx, storage)
	}
}

type productSaver interface {
	SaveProduct(ctx context.Context, product *models.Product) (string, error)
}

func seedProducts(ctx context.Context, store productSaver) {
	log.Println("Seeding sample products...")

	samples := []*models.Product{
		{
			Name:        "T-shirt coton bio",
			Description: "T-shirt en coton biologique, coupe droite, col rond.",
			Price:       24.90,
			Category:    "T-shirts",
			Gender:      "unisexe",
			Sizes:       []string{"S", "M", "L", "XL"},
			Colors:      []models.Color{{Name: "Blanc", Hex: "#FFFFFF"}, {Name: "Noir", Hex: "#000000"}},
			Stock:       120,
			Featured:    true,
			IsActive:    true,
		},
		{
			Name:        "Robe d'été fleurie",
			Description: "Robe légère à motifs floraux, parfaite pour la saison estivale.",
			Price:       59.90,
			Category:    "Robes",
			Gender:      "femme",
			Sizes:       []string{"XS", "S", "M", "L"},
			Colors:      []models.Color{{Name: "Bleu", Hex: "#4A90D9"}},
			Stock:       45,
			Featured:    true,
			IsActive:    true,
		},
		{
			Name:        "Veste en jean",
			Description: "Veste en denim brut, coupe classique, finitions soignées.",
			Price:       89.00,
			Category:    "Vestes",
			Gender:      "homme",
			Sizes:       []string{"M", "L", "XL"},
			Colors:      []models.Color{{Name: "Indigo", Hex: "#3F5277"}},
			Stock:       30,
			IsActive:    true,
		},
	}

	for _, p := range samples {
		id, err := store.SaveProduct(ctx, p)
		if err != nil {
			log.Fatalf("failed to seed product %q: %v", p.Name, err)
		}
		log.Printf("Seeded product %q (id=%s)", p.Name, id)
	}
}
