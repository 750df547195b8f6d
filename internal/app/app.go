package app

import (
	"context"
	"fmt"
	"log/slog"

	"boutique/internal/app/httpserver"
	"boutique/internal/config"
	"boutique/internal/httpapi"
	"boutique/internal/services/admin"
	"boutique/internal/services/auth"
	"boutique/internal/services/catalog"
	"boutique/internal/services/mailer"
	"boutique/internal/services/orders"
	"boutique/internal/services/session"
	"boutique/internal/storage/mongodb"
	"boutique/internal/storage/sqlite"
)

// Store is the full persistence surface the services draw from. Both
// storage backends implement it.
type Store interface {
	session.TokenLedger
	auth.UserSaver
	auth.UserProvider
	auth.UserUpdater
	catalog.ProductStore
	orders.OrderStore
	admin.StatsStore
	admin.UserStore
}

type App struct {
	HTTPSrv *httpserver.App

	closeStore func(ctx context.Context) error
}

func New(logger *slog.Logger, cfg *config.Config) *App {
	store, closeStore, err := openStorage(cfg)
	if err != nil {
		panic(err)
	}

	sessions, err := session.New(logger, store, session.Config{
		AccessSecret:  cfg.Tokens.AccessSecret,
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshSecret: cfg.Tokens.RefreshSecret,
		RefreshTTL:    cfg.Tokens.RefreshTTL,
	})
	if err != nil {
		panic(err)
	}

	mailService := mailer.New(logger, cfg.SMTP, cfg.FrontendURL)
	authService := auth.New(logger, store, store, store, sessions, mailService)
	catalogService := catalog.New(logger, store)
	ordersService := orders.New(logger, store, store)
	adminService := admin.New(logger, store, store)

	router := httpapi.NewRouter(logger, cfg.FrontendURL, sessions, authService, catalogService, ordersService, adminService)
	httpApp := httpserver.New(logger, router, cfg.HTTP.Port, cfg.HTTP.Timeout)

	return &App{
		HTTPSrv:    httpApp,
		closeStore: closeStore,
	}
}

// Stop shuts the HTTP server down gracefully before releasing the storage
// connection.
func (a *App) Stop(ctx context.Context) {
	a.HTTPSrv.Stop(ctx)
	_ = a.closeStore(ctx)
}

func openStorage(cfg *config.Config) (Store, func(ctx context.Context) error, error) {
	const op = "app.openStorage"

	switch cfg.Storage {
	case "sqlite":
		storage, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return storage, func(context.Context) error { return storage.Close() }, nil
	default:
		storage, err := mongodb.New(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return storage, storage.Close, nil
	}
}
