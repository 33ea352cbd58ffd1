package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ddmr2811/Facturas/internal/models"
	"github.com/ddmr2811/Facturas/internal/parse"
	"github.com/ddmr2811/Facturas/internal/textnorm"
)

var trailingSepRe = regexp.MustCompile(`[,\-/\s]+$`)

type category struct {
	typ      models.ExpenseType
	keywords []string // folded
}

// Extractor holds one ordered matcher list per field. It is immutable after
// New and safe for concurrent use.
type Extractor struct {
	categories []category
	window     parse.DateWindow
	stripper   *textnorm.SuffixStripper

	serviceID  []Matcher
	address    []Matcher
	amount     []Matcher
	issueDate  []Matcher
	period     []Matcher
	supplyCode []Matcher
	policy     []Matcher
	meter      []Matcher
}

// New builds an extractor for the given deployment rules. Unset settings
// take the reference defaults.
func New(cfg models.ExtractionConfig) *Extractor {
	cfg = cfg.WithDefaults()

	e := &Extractor{
		window:   parse.DateWindow{MinYear: cfg.MinYear, MaxYear: cfg.MaxYear},
		stripper: textnorm.NewSuffixStripper(cfg.Cities),
	}

	// Priority order: Water > Power > Cleaning
	for _, c := range []struct {
		typ models.ExpenseType
		kws []string
	}{
		{models.ExpenseWater, cfg.Keywords.Water},
		{models.ExpensePower, cfg.Keywords.Power},
		{models.ExpenseCleaning, cfg.Keywords.Cleaning},
	} {
		cat := category{typ: c.typ}
		for _, kw := range c.kws {
			if kw = textnorm.Fold(strings.TrimSpace(kw)); kw != "" {
				cat.keywords = append(cat.keywords, kw)
			}
		}
		e.categories = append(e.categories, cat)
	}

	e.serviceID = []Matcher{
		Pattern(supplyIDRe, Upper),
		MatcherFunc(knownKey),
	}

	e.address = []Matcher{
		Pattern(addressLabelRe, e.cleanAddress),
		Pattern(addressLongLabelRe, e.cleanAddress),
		MatcherFunc(e.knownAddress),
	}
	for _, street := range cfg.PrimaryStreets {
		if strings.TrimSpace(street) == "" {
			continue
		}
		e.address = append(e.address, Pattern(primaryStreetRe(street), e.cleanAddress))
	}
	e.address = append(e.address, Pattern(genericStreetRe, e.cleanAddress))

	e.amount = []Matcher{
		Pattern(amountLabelRe, positiveMoney),
		MatcherFunc(maxCurrencyAmount),
		Pattern(amountBareRe, money),
	}

	for _, re := range issueDateRes {
		e.issueDate = append(e.issueDate, Pattern(re, e.window.Normalize))
	}
	e.issueDate = append(e.issueDate, Pattern(anyDateRe, e.window.Normalize))

	e.period = []Matcher{
		Pattern(measurePeriodRe, collapse),
		Pattern(billedPeriodRe, collapse),
		Pattern(monthRangeRe, collapse),
		MatcherFunc(e.dateRange),
	}

	for _, re := range supplyCodeRes {
		e.supplyCode = append(e.supplyCode, Pattern(re, nil))
	}
	for _, re := range policyRes {
		e.policy = append(e.policy, Pattern(re, nil))
	}

	e.meter = []Matcher{
		Pattern(meterLabelRe, hasDigit),
		UpperPattern(meterUpperLabelRe, hasDigit),
		UpperPattern(meterTokenRe, notSupplyID),
	}

	return e
}

// Extract runs every field extractor over the text. It never fails: fields
// that are not found are left absent.
func (e *Extractor) Extract(in models.RawInvoiceText, known Catalog) models.ExtractedFields {
	doc := NewDocument(in.Text, known)
	typ := e.ExpenseType(in.Text, in.FilenameHint)

	return models.ExtractedFields{
		ExpenseType:       typ,
		ServiceIdentifier: e.ServiceIdentifier(doc),
		Address:           e.Address(doc),
		AmountTotal:       e.Amount(doc),
		IssueDate:         e.IssueDate(doc),
		BillingPeriod:     e.BillingPeriod(doc),
		SupplyCode:        e.SupplyCode(doc),
		PolicyNumber:      e.PolicyNumber(doc),
		MeterCode:         e.MeterCode(doc),
		HolderName:        e.HolderName(doc, typ),
	}
}

// ExpenseType classifies text by keyword, with the filename hint appended.
// Matching ignores case and accents.
func (e *Extractor) ExpenseType(text, hint string) models.ExpenseType {
	hay := textnorm.Fold(text + " " + hint)
	for _, c := range e.categories {
		for _, kw := range c.keywords {
			if strings.Contains(hay, kw) {
				return c.typ
			}
		}
	}
	return models.ExpenseOther
}

func (e *Extractor) ServiceIdentifier(doc *Document) models.Optional[string] {
	return optional(First(doc, e.serviceID))
}

func (e *Extractor) Address(doc *Document) models.Optional[string] {
	return optional(First(doc, e.address))
}

// Amount returns the invoice total: the labelled total, else the largest
// currency-suffixed figure, else the first decimal number.
func (e *Extractor) Amount(doc *Document) models.Optional[decimal.Decimal] {
	s, ok := First(doc, e.amount)
	if !ok {
		return models.None[decimal.Decimal]()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return models.None[decimal.Decimal]()
	}
	return models.Some(d)
}

func (e *Extractor) IssueDate(doc *Document) models.Optional[string] {
	return optional(First(doc, e.issueDate))
}

func (e *Extractor) BillingPeriod(doc *Document) models.Optional[string] {
	return optional(First(doc, e.period))
}

func (e *Extractor) SupplyCode(doc *Document) models.Optional[string] {
	return optional(First(doc, e.supplyCode))
}

func (e *Extractor) PolicyNumber(doc *Document) models.Optional[string] {
	return optional(First(doc, e.policy))
}

func (e *Extractor) MeterCode(doc *Document) models.Optional[string] {
	return optional(First(doc, e.meter))
}

// HolderName reads the community label printed on the invoice: the supply
// address line on water bills, the account holder on power bills.
func (e *Extractor) HolderName(doc *Document, typ models.ExpenseType) models.Optional[string] {
	var re *regexp.Regexp
	switch typ {
	case models.ExpenseWater:
		re = holderWaterRe
	case models.ExpensePower:
		re = holderPowerRe
	default:
		return models.None[string]()
	}

	m := re.FindStringSubmatch(doc.Raw)
	if m == nil {
		return models.None[string]()
	}
	name := ownersRe.ReplaceAllString(m[1], "")
	if typ == models.ExpenseWater {
		name = e.stripper.Strip(name)
	}
	name = textnorm.CollapseSpaces(trailingSepRe.ReplaceAllString(name, ""))
	if len(name) <= 3 {
		return models.None[string]()
	}
	return models.Some(name)
}

func (e *Extractor) cleanAddress(s string) (string, bool) {
	s = trailingSepRe.ReplaceAllString(s, "")
	s = e.stripper.Strip(s)
	return s, s != ""
}

// knownAddress looks for any reference address of the identifier table,
// compared on normalized keys at word boundaries.
func (e *Extractor) knownAddress(doc *Document) (string, bool) {
	if doc.Known == nil {
		return "", false
	}
	hay := " " + textnorm.NormalizeKey(doc.Raw) + " "
	for _, ref := range doc.Known.ReferenceAddresses() {
		key := textnorm.NormalizeKey(ref)
		if key == "" {
			continue
		}
		if strings.Contains(hay, " "+key+" ") {
			if addr, ok := e.cleanAddress(ref); ok {
				return addr, true
			}
		}
	}
	return "", false
}

func (e *Extractor) dateRange(doc *Document) (string, bool) {
	for _, m := range dateRangeRe.FindAllStringSubmatch(doc.Raw, -1) {
		from, ok1 := e.window.Normalize(m[1])
		to, ok2 := e.window.Normalize(m[2])
		if ok1 && ok2 {
			return from + " - " + to, true
		}
	}
	return "", false
}

// knownKey returns the first identifier-table key found in the text
func knownKey(doc *Document) (string, bool) {
	if doc.Known == nil {
		return "", false
	}
	for _, k := range doc.Known.Keys() {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if strings.Contains(doc.Upper, strings.ToUpper(k)) {
			return k, true
		}
	}
	return "", false
}

// maxCurrencyAmount takes the largest currency-suffixed figure
func maxCurrencyAmount(doc *Document) (string, bool) {
	var best decimal.Decimal
	found := false
	for _, m := range amountCurrencyRe.FindAllStringSubmatch(doc.Raw, -1) {
		d, ok := parse.Money(m[1])
		if !ok {
			continue
		}
		if !found || d.GreaterThan(best) {
			best, found = d, true
		}
	}
	if !found {
		return "", false
	}
	return best.StringFixed(2), true
}

func money(s string) (string, bool) {
	d, ok := parse.Money(s)
	if !ok {
		return "", false
	}
	return d.StringFixed(2), true
}

// positiveMoney skips zero totals such as "TOTAL: 0,00"
func positiveMoney(s string) (string, bool) {
	d, ok := parse.Money(s)
	if !ok || !d.IsPositive() {
		return "", false
	}
	return d.StringFixed(2), true
}

func collapse(s string) (string, bool) {
	s = textnorm.CollapseSpaces(s)
	return s, s != ""
}

func optional(v string, ok bool) models.Optional[string] {
	if !ok {
		return models.None[string]()
	}
	return models.Some(v)
}
