// Package label builds the renamed document filename and the one-line
// ledger memo of a resolved invoice.
package label

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ddmr2811/Facturas/internal/models"
	"github.com/ddmr2811/Facturas/internal/parse"
	"github.com/ddmr2811/Facturas/internal/textnorm"
)

const (
	NoAddress    = "No Address"
	PeriodPrefix = "Billing period of"
)

var unsafeRe = regexp.MustCompile(`[<>:"/\\|?*]`)

// Synthesizer renders filenames and memos
type Synthesizer struct {
	currency string
}

// New returns a synthesizer using the given currency suffix ("EUR" when
// empty)
func New(currency string) *Synthesizer {
	if currency == "" {
		currency = "EUR"
	}
	return &Synthesizer{currency: currency}
}

// Sanitize removes the characters < > : " / \ | ? * and collapses spaces
func Sanitize(s string) string {
	return textnorm.CollapseSpaces(unsafeRe.ReplaceAllString(s, ""))
}

// Location picks the address, else the policy or supply code label. It is
// empty when none was extracted.
func Location(f models.ExtractedFields) string {
	if addr, ok := f.Address.Get(); ok && strings.TrimSpace(addr) != "" {
		return addr
	}
	if p, ok := f.PolicyNumber.Get(); ok && p != "" {
		return "Póliza " + p
	}
	if c, ok := f.SupplyCode.Get(); ok && c != "" {
		return "Cód.Abast. " + c
	}
	return ""
}

// Filename builds "<type> <location> <date> <amount>", for example
// "Water AVDA RECONQUISTA 14 08-04-2024 11,10EUR". The location falls back
// to the community name, then to NoAddress. An absent date is omitted and
// an absent amount renders as 0EUR.
func (s *Synthesizer) Filename(f models.ExtractedFields, community string) string {
	loc := Sanitize(Location(f))
	if loc == "" {
		loc = Sanitize(community)
	}
	if loc == "" {
		loc = NoAddress
	}

	parts := []string{Sanitize(string(f.ExpenseType)), loc}
	if date, ok := f.IssueDate.Get(); ok {
		parts = append(parts, Sanitize(strings.ReplaceAll(date, "/", "-")))
	}
	parts = append(parts, s.amount(f.AmountTotal, "0"))

	return joinNonEmpty(parts)
}

// Memo builds the ledger line: type, upper-cased location, billing period
// and amount. Missing parts are skipped.
func (s *Synthesizer) Memo(f models.ExtractedFields) string {
	parts := []string{string(f.ExpenseType), strings.ToUpper(Location(f))}
	if period, ok := f.BillingPeriod.Get(); ok && period != "" {
		parts = append(parts, PeriodPrefix+" "+period)
	}
	if f.AmountTotal.Found {
		parts = append(parts, s.amount(f.AmountTotal, ""))
	}
	return joinNonEmpty(parts)
}

// Amount renders "1234,56EUR"
func (s *Synthesizer) Amount(d decimal.Decimal) string {
	return parse.FormatMoney(d) + s.currency
}

func (s *Synthesizer) amount(v models.Optional[decimal.Decimal], absent string) string {
	d, ok := v.Get()
	if !ok {
		if absent == "" {
			return ""
		}
		return absent + s.currency
	}
	return s.Amount(d)
}

func joinNonEmpty(parts []string) string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
