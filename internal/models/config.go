package models

import "time"

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// Lookup tables file (identifier, address and default tables)
	TablesPath string `yaml:"tables_path"`

	LogLevel string `yaml:"log_level"`

	Extraction ExtractionConfig `yaml:"extraction"`
	Batch      BatchConfig      `yaml:"batch"`
	PDF        PDFConfig        `yaml:"pdf"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Database   DatabaseConfig   `yaml:"database"`
}

// ExtractionConfig holds the per-deployment extraction rules
type ExtractionConfig struct {
	Keywords KeywordConfig `yaml:"keywords"`

	// Plausibility window for issue dates
	MinYear int `yaml:"min_year"`
	MaxYear int `yaml:"max_year"`

	// Street names that get their own address pattern tier
	PrimaryStreets []string `yaml:"primary_streets"`

	// City/region names cut from the end of addresses
	Cities []string `yaml:"cities"`

	CurrencySuffix string `yaml:"currency_suffix"`
}

// KeywordConfig lists the expense type vocabularies (accent-insensitive)
type KeywordConfig struct {
	Water    []string `yaml:"water"`
	Power    []string `yaml:"power"`
	Cleaning []string `yaml:"cleaning"`
}

// BatchConfig bounds multi-file processing
type BatchConfig struct {
	Workers  int `yaml:"workers"`
	MaxFiles int `yaml:"max_files"`
}

// PDFConfig bounds PDF text extraction
type PDFConfig struct {
	MaxPages int `yaml:"max_pages"`
}

// AuthConfig configures login and JWT issuing
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Users     []UserConfig  `yaml:"users"`
}

// UserConfig is one operator account. PasswordHash is a bcrypt hash.
type UserConfig struct {
	Username     string `yaml:"username"`
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
	Active       *bool  `yaml:"active,omitempty"`
}

// IsActive defaults to true when unset
func (u UserConfig) IsActive() bool {
	return u.Active == nil || *u.Active
}

// StorageConfig configures the MinIO document bucket
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Enabled reports whether enough settings are present to connect
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}

// DatabaseConfig configures the Postgres pool
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// DefaultExtractionConfig returns the rules of the reference deployment
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		Keywords: KeywordConfig{
			Water:    []string{"aqualia", "agua"},
			Power:    []string{"electric", "eléctr", "energ", "luz"},
			Cleaning: []string{"limpi", "manten"},
		},
		MinYear:        2020,
		MaxYear:        2030,
		PrimaryStreets: []string{"RECONQUISTA"},
		Cities:         []string{"TOLEDO"},
		CurrencySuffix: "EUR",
	}
}

// WithDefaults fills unset extraction settings from DefaultExtractionConfig
func (c ExtractionConfig) WithDefaults() ExtractionConfig {
	def := DefaultExtractionConfig()
	if len(c.Keywords.Water) == 0 {
		c.Keywords.Water = def.Keywords.Water
	}
	if len(c.Keywords.Power) == 0 {
		c.Keywords.Power = def.Keywords.Power
	}
	if len(c.Keywords.Cleaning) == 0 {
		c.Keywords.Cleaning = def.Keywords.Cleaning
	}
	if c.MinYear == 0 {
		c.MinYear = def.MinYear
	}
	if c.MaxYear == 0 {
		c.MaxYear = def.MaxYear
	}
	if c.PrimaryStreets == nil {
		c.PrimaryStreets = def.PrimaryStreets
	}
	if c.Cities == nil {
		c.Cities = def.Cities
	}
	if c.CurrencySuffix == "" {
		c.CurrencySuffix = def.CurrencySuffix
	}
	return c
}
