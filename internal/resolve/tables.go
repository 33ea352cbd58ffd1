// Package resolve assigns an invoice to an accounting community through a
// five-tier lookup cascade over static tables.
package resolve

import (
	"strings"

	"github.com/ddmr2811/Facturas/internal/models"
	"github.com/ddmr2811/Facturas/internal/textnorm"
)

// IdentifierEntry maps a service identifier or meter code to a community.
// Codes holds extra routing values (policy numbers, supply codes) searched
// by the routing-code tier.
type IdentifierEntry struct {
	Key                  string `yaml:"key"`
	models.AccountEntity `yaml:",inline"`
	Codes                []string `yaml:"codes,omitempty"`
}

// AddressEntry maps an (expense type, address) pair to a community
type AddressEntry struct {
	Type                 models.ExpenseType `yaml:"type"`
	Address              string             `yaml:"address"`
	models.AccountEntity `yaml:",inline"`
}

type addressKey struct {
	typ models.ExpenseType
	key string
}

// Tables is an immutable, indexed set of lookup tables. Build it with
// NewTables; never modify a published instance.
type Tables struct {
	identifiers []IdentifierEntry
	byKey       map[string]models.AccountEntity
	haystacks   []string // upper-cased concatenated values per identifier entry
	byAddress   map[addressKey]models.AccountEntity
	defaults    map[models.ExpenseType]models.AccountEntity
	refAddrs    []string
	keys        []string
}

// DefaultTypeAccounts is the per-type fallback of the reference deployment
var DefaultTypeAccounts = map[models.ExpenseType]models.AccountEntity{
	models.ExpenseWater: {CommunityName: "COMUNIDAD AGUA", LedgerAccountCode: "6281111"},
	models.ExpensePower: {CommunityName: "COMUNIDAD LUZ", LedgerAccountCode: "6282222"},
	models.ExpenseOther: {CommunityName: "COMUNIDAD GENERAL", LedgerAccountCode: "628"},
}

// NewTables indexes the given tables. Identifier order is kept: for a
// duplicated key the first entry wins. Missing type defaults are taken
// from DefaultTypeAccounts; a type without its own default uses Other's.
func NewTables(identifiers []IdentifierEntry, addresses []AddressEntry, defaults map[models.ExpenseType]models.AccountEntity) *Tables {
	t := &Tables{
		identifiers: append([]IdentifierEntry(nil), identifiers...),
		byKey:       make(map[string]models.AccountEntity, len(identifiers)),
		byAddress:   make(map[addressKey]models.AccountEntity, len(addresses)),
		defaults:    make(map[models.ExpenseType]models.AccountEntity),
	}

	for _, e := range t.identifiers {
		if _, dup := t.byKey[e.Key]; !dup && e.Key != "" {
			t.byKey[e.Key] = e.AccountEntity
			t.keys = append(t.keys, e.Key)
		}
		if e.ReferenceAddress != "" {
			t.refAddrs = append(t.refAddrs, e.ReferenceAddress)
		}
		t.haystacks = append(t.haystacks, entryValues(e))
	}

	for _, a := range addresses {
		k := addressKey{typ: a.Type, key: textnorm.NormalizeKey(a.Address)}
		if _, dup := t.byAddress[k]; !dup {
			t.byAddress[k] = a.AccountEntity
		}
	}

	for typ, acc := range DefaultTypeAccounts {
		t.defaults[typ] = acc
	}
	for typ, acc := range defaults {
		t.defaults[typ] = acc
	}

	return t
}

// entryValues joins the textual values of an entry, upper-cased
func entryValues(e IdentifierEntry) string {
	parts := []string{e.CommunityName, e.LedgerAccountCode, e.ReferenceAddress}
	parts = append(parts, e.Codes...)
	var b strings.Builder
	for _, p := range parts {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToUpper(p))
	}
	return b.String()
}

// Keys returns identifier keys in table order
func (t *Tables) Keys() []string {
	return t.keys
}

// ReferenceAddresses returns the reference addresses of the identifier
// table in table order
func (t *Tables) ReferenceAddresses() []string {
	return t.refAddrs
}

// Identifiers returns a copy of the identifier table
func (t *Tables) Identifiers() []IdentifierEntry {
	return append([]IdentifierEntry(nil), t.identifiers...)
}

// Len reports the number of identifier and address entries
func (t *Tables) Len() (identifiers, addresses int) {
	return len(t.identifiers), len(t.byAddress)
}

// Default returns the fallback entity for typ
func (t *Tables) Default(typ models.ExpenseType) models.AccountEntity {
	if acc, ok := t.defaults[typ]; ok {
		return acc
	}
	return t.defaults[models.ExpenseOther]
}
