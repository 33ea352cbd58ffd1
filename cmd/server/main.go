package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/ddmr2811/Facturas/api"
	"github.com/ddmr2811/Facturas/internal/auth"
	"github.com/ddmr2811/Facturas/internal/config"
	"github.com/ddmr2811/Facturas/internal/db"
	"github.com/ddmr2811/Facturas/internal/invoice"
	"github.com/ddmr2811/Facturas/internal/logger"
	"github.com/ddmr2811/Facturas/internal/pdftext"
	"github.com/ddmr2811/Facturas/internal/resolve"
	"github.com/ddmr2811/Facturas/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	config.LoadEnv()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	// Initialize JWT
	if err := auth.Init(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth")
	}
	auth.SetUsers(cfg.Auth.Users)
	log.Info().Int("users", len(cfg.Auth.Users)).Msg("JWT authentication initialized")

	// Lookup tables
	tables, err := config.LoadTables(cfg.TablesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TablesPath).Msg("failed to load lookup tables")
	}
	ids, addrs := tables.Len()
	log.Info().Int("identifiers", ids).Int("addresses", addrs).Msg("lookup tables loaded")

	svcCfg := invoice.ServiceConfig{
		Text:   pdftext.New(cfg.PDF.MaxPages),
		Logger: log,
	}

	// Initialize database connection pool
	if err := db.Init(cfg.Database); err != nil {
		log.Warn().Err(err).Msg("database not available, invoices will not be persisted")
	} else {
		defer db.Close()
		svcCfg.Repository = db.Repository{}
		log.Info().Msg("database connection pool initialized")
	}

	// Initialize MinIO storage
	if err := storage.Init(cfg.Storage); err != nil {
		log.Warn().Err(err).Msg("storage not available, documents will not be stored")
	} else {
		svcCfg.Documents = storage.Bucket{}
		log.Info().Str("bucket", cfg.Storage.Bucket).Msg("MinIO storage initialized")
	}

	proc := invoice.NewProcessor(cfg.Extraction, resolve.NewStore(tables)).
		WithWorkers(cfg.Batch.Workers).
		WithLogger(log)
	service := invoice.NewService(proc, svcCfg)

	// Create API handler
	handler := api.NewHandler(cfg, service)
	router := handler.SetupRoutes()
	router.Use(api.RequestLogger(log))

	// Wrap router with JWT middleware (skips /health and /api/login)
	protectedRouter := auth.JWTMiddleware(router)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Info().
		Str("addr", addr).
		Str("version", api.Version).
		Bool("database", db.Available()).
		Bool("storage", storage.Available()).
		Msg("starting invoice service")

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
