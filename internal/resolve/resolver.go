package resolve

import (
	"strings"
	"sync/atomic"

	"github.com/ddmr2811/Facturas/internal/models"
	"github.com/ddmr2811/Facturas/internal/textnorm"
)

// Resolution is the community assigned to an invoice and the tier that
// produced it
type Resolution struct {
	models.AccountEntity
	Tier models.ResolutionTier
}

// Resolve runs the cascade: service identifier, (type, address), routing
// code inside entry values, meter code, then the type default. The last
// tier always succeeds.
func (t *Tables) Resolve(f models.ExtractedFields) Resolution {
	// 1. Service identifier
	if id, ok := f.ServiceIdentifier.Get(); ok {
		if acc, ok := t.byKey[id]; ok {
			return Resolution{AccountEntity: acc, Tier: models.TierIdentifier}
		}
	}

	// 2. Expense type + normalized address
	if addr, ok := f.Address.Get(); ok {
		k := addressKey{typ: f.ExpenseType, key: textnorm.NormalizeKey(addr)}
		if acc, ok := t.byAddress[k]; ok {
			return Resolution{AccountEntity: acc, Tier: models.TierAddress}
		}
	}

	// 3. Policy number or supply code inside an entry's values. The first
	// entry in table order wins, even when a later one matches better.
	policy, hasPolicy := f.PolicyNumber.Get()
	supply, hasSupply := f.SupplyCode.Get()
	policy = strings.ToUpper(strings.TrimSpace(policy))
	supply = strings.TrimSpace(supply)
	if (hasPolicy && policy != "") || (hasSupply && supply != "") {
		for i, hay := range t.haystacks {
			if (hasPolicy && policy != "" && strings.Contains(hay, policy)) ||
				(hasSupply && supply != "" && strings.Contains(hay, supply)) {
				return Resolution{AccountEntity: t.identifiers[i].AccountEntity, Tier: models.TierRoutingCode}
			}
		}
	}

	// 4. Meter code
	if meter, ok := f.MeterCode.Get(); ok {
		if acc, ok := t.byKey[meter]; ok {
			return Resolution{AccountEntity: acc, Tier: models.TierMeter}
		}
	}

	// 5. Type default
	return Resolution{AccountEntity: t.Default(f.ExpenseType), Tier: models.TierTypeDefault}
}

// Store publishes Tables for concurrent readers. Refreshing swaps in a new
// immutable instance so a resolution never sees a half-updated table.
type Store struct {
	current atomic.Pointer[Tables]
}

// NewStore returns a store holding t, or empty tables when t is nil
func NewStore(t *Tables) *Store {
	s := &Store{}
	if t == nil {
		t = NewTables(nil, nil, nil)
	}
	s.current.Store(t)
	return s
}

// Load returns the current tables
func (s *Store) Load() *Tables {
	return s.current.Load()
}

// Swap publishes t and returns the previous tables
func (s *Store) Swap(t *Tables) *Tables {
	return s.current.Swap(t)
}
