// Package config loads the service configuration and the lookup tables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ddmr2811/Facturas/internal/models"
)

const (
	defaultPort       = 8080
	defaultHost       = "0.0.0.0"
	defaultTablesPath = "tables.yaml"
	defaultBucket     = "facturas"
	defaultTokenTTL   = 24 * time.Hour
	defaultMaxFiles   = 50
	defaultMaxPages   = 3
)

// ErrInvalidConfig wraps every configuration validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadEnv loads .env files into the process environment. Missing files are
// ignored.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// Load reads the YAML file at path, applies environment overrides and
// fills defaults. An empty path skips the file.
func Load(path string) (*models.Config, error) {
	var cfg models.Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if cfg.Extraction.MinYear > cfg.Extraction.MaxYear {
		return nil, fmt.Errorf("%w: min_year %d after max_year %d",
			ErrInvalidConfig, cfg.Extraction.MinYear, cfg.Extraction.MaxYear)
	}
	return &cfg, nil
}

// Override with environment variables if present
func applyEnv(cfg *models.Config) error {
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: PORT %q", ErrInvalidConfig, port)
		}
		cfg.Port = n
	}
	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}
	if path := os.Getenv("TABLES_PATH"); path != "" {
		cfg.TablesPath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		cfg.Storage.Endpoint = endpoint
	}
	if key := os.Getenv("MINIO_ACCESS_KEY"); key != "" {
		cfg.Storage.AccessKey = key
	}
	if key := os.Getenv("MINIO_SECRET_KEY"); key != "" {
		cfg.Storage.SecretKey = key
	}
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		cfg.Storage.Bucket = bucket
	}
	if ssl := os.Getenv("MINIO_USE_SSL"); ssl != "" {
		cfg.Storage.UseSSL = strings.EqualFold(ssl, "true") || ssl == "1"
	}
	return nil
}

func applyDefaults(cfg *models.Config) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.TablesPath == "" {
		cfg.TablesPath = defaultTablesPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Batch.MaxFiles <= 0 {
		cfg.Batch.MaxFiles = defaultMaxFiles
	}
	if cfg.PDF.MaxPages <= 0 {
		cfg.PDF.MaxPages = defaultMaxPages
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = defaultTokenTTL
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = defaultBucket
	}
	cfg.Extraction = cfg.Extraction.WithDefaults()
}
