package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/remitdesk/internal/auth"
	"github.com/vanshika/remitdesk/internal/config"
	"github.com/vanshika/remitdesk/internal/identity"
	"github.com/vanshika/remitdesk/internal/logging"
	"github.com/vanshika/remitdesk/internal/repository"
	"github.com/vanshika/remitdesk/internal/server"
	"github.com/vanshika/remitdesk/internal/service"
	"github.com/vanshika/remitdesk/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docStore, err := store.Open(ctx, storeOptions(cfg.Store))
	if err != nil {
		logger.Error("failed to open store", "error", err, "driver", cfg.Store.Driver)
		os.Exit(1)
	}
	defer func() {
		if err := docStore.Close(context.Background()); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}()
	logger.Info("store ready", "driver", cfg.Store.Driver)

	verifier, err := identity.NewJWTVerifier(identity.Options{
		Secret:   cfg.Auth.JWTSecret,
		CertsURL: cfg.Auth.CertsURL,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	})
	if err != nil {
		logger.Error("failed to configure token verifier", "error", err)
		os.Exit(1)
	}

	lists := auth.NewAllowLists(auth.ParseUIDList(cfg.Auth.AdminUIDsCSV), auth.ParseUIDList(cfg.Auth.BankUIDsCSV))
	gate := auth.NewGate(verifier, lists, logger.With("component", "auth"))

	repo := repository.New(docStore)
	txService := service.NewTransactionService(repo, cfg.App.InvoiceLocation)
	apiHandlers := server.NewAPIHandlers(logger, txService, server.HandlerOptions{
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Development:  cfg.App.Development(),
	})

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Store: repo},
		API:              apiHandlers,
		Gate:             gate,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)
	if err := srv.Run(ctx, nil); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
		os.Exit(1)
	}
}

func storeOptions(cfg config.StoreConfig) store.Options {
	return store.Options{
		Driver:         cfg.Driver,
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		DSN:            cfg.DSN,
		MaxConnections: cfg.MaxConnections,
	}
}
