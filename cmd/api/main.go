package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/config"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore/gormstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore/memory"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/handlers"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/identity"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/ledger"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/logger"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/validator"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStore(appConfig)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}

	validator.Register()

	provider := identity.NewLocal()
	issuer := identity.NewTokenIssuer(appConfig.JWTSecret, appConfig.JWTExpirationDur)

	// The coordinator keeps a live ledger store open for the active session,
	// mirroring accounts, categories and transactions while the user is
	// signed in. Login and logout drive it through the session gate.
	gate := ledger.NewSessionGate(provider)
	coordinator := ledger.NewCoordinator(gate, store)
	coordinator.Start(context.Background())
	defer coordinator.Close()

	router := handlers.NewRouter(store, provider, issuer, gate, coordinator)

	log.Infof("Starting MyFinances backend server on port %s (store driver: %s)",
		appConfig.Port, appConfig.StoreDriver)
	return router.Run(":" + appConfig.Port)
}

func openStore(cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return memory.NewStore(), nil
	case config.StoreSQLite:
		return gormstore.OpenSQLite(cfg.SQLitePath)
	case config.StorePostgres:
		return gormstore.OpenPostgres(cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
