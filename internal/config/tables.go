package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ddmr2811/Facturas/internal/models"
	"github.com/ddmr2811/Facturas/internal/resolve"
)

// ErrInvalidTables wraps every lookup table validation failure
var ErrInvalidTables = errors.New("invalid lookup tables")

// TablesFile is the on-disk layout of the lookup tables
type TablesFile struct {
	Identifiers []resolve.IdentifierEntry                   `yaml:"identifiers"`
	Addresses   []resolve.AddressEntry                      `yaml:"addresses"`
	Defaults    map[models.ExpenseType]models.AccountEntity `yaml:"defaults"`
}

// LoadTables reads and validates the tables file at path
func LoadTables(path string) (*resolve.Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes and validates YAML lookup tables
func ParseTables(data []byte) (*resolve.Tables, error) {
	var f TablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return resolve.NewTables(f.Identifiers, f.Addresses, f.Defaults), nil
}

// Validate reports every malformed entry at once
func (f TablesFile) Validate() error {
	var errs []error
	for i, e := range f.Identifiers {
		if strings.TrimSpace(e.Key) == "" {
			errs = append(errs, fmt.Errorf("%w: identifiers[%d]: empty key", ErrInvalidTables, i))
		}
		if strings.TrimSpace(e.LedgerAccountCode) == "" {
			errs = append(errs, fmt.Errorf("%w: identifiers[%d] %q: empty account", ErrInvalidTables, i, e.Key))
		}
	}
	for i, e := range f.Addresses {
		if !e.Type.Valid() {
			errs = append(errs, fmt.Errorf("%w: addresses[%d]: unknown type %q", ErrInvalidTables, i, e.Type))
		}
		if strings.TrimSpace(e.Address) == "" {
			errs = append(errs, fmt.Errorf("%w: addresses[%d]: empty address", ErrInvalidTables, i))
		}
		if strings.TrimSpace(e.LedgerAccountCode) == "" {
			errs = append(errs, fmt.Errorf("%w: addresses[%d] %q: empty account", ErrInvalidTables, i, e.Address))
		}
	}
	for typ, acc := range f.Defaults {
		if !typ.Valid() {
			errs = append(errs, fmt.Errorf("%w: defaults: unknown type %q", ErrInvalidTables, typ))
		}
		if strings.TrimSpace(acc.LedgerAccountCode) == "" {
			errs = append(errs, fmt.Errorf("%w: defaults[%s]: empty account", ErrInvalidTables, typ))
		}
	}
	return errors.Join(errs...)
}
