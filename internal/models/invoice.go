package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseType is the closed category set an invoice is classified into
type ExpenseType string

const (
	ExpenseWater    ExpenseType = "Water"
	ExpensePower    ExpenseType = "Power"
	ExpenseCleaning ExpenseType = "Cleaning"
	ExpenseOther    ExpenseType = "Other"
)

// ExpenseTypes lists every category in classification priority order
var ExpenseTypes = []ExpenseType{ExpenseWater, ExpensePower, ExpenseCleaning, ExpenseOther}

// Valid reports whether t belongs to the closed category set
func (t ExpenseType) Valid() bool {
	switch t {
	case ExpenseWater, ExpensePower, ExpenseCleaning, ExpenseOther:
		return true
	}
	return false
}

// Optional is a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	Value T
	Found bool
}

// Some wraps a present value
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Found: true}
}

// None returns the absent marker for T
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Found
}

// OrElse returns the value, or def when absent
func (o Optional[T]) OrElse(def T) T {
	if !o.Found {
		return def
	}
	return o.Value
}

// MarshalJSON renders an absent value as null
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Found {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON treats null as absent
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// ExtractedFields holds the billing facts found in one invoice text
type ExtractedFields struct {
	ExpenseType       ExpenseType               `json:"expenseType"`
	ServiceIdentifier Optional[string]          `json:"serviceIdentifier"` // CUPS or known table key
	Address           Optional[string]          `json:"address"`           // city/postal suffix stripped
	AmountTotal       Optional[decimal.Decimal] `json:"amountTotal"`
	IssueDate         Optional[string]          `json:"issueDate"` // DD/MM/YYYY
	BillingPeriod     Optional[string]          `json:"billingPeriod"`
	SupplyCode        Optional[string]          `json:"supplyCode"`
	PolicyNumber      Optional[string]          `json:"policyNumber"`
	MeterCode         Optional[string]          `json:"meterCode"`

	// Community label printed on the invoice itself (informational)
	HolderName Optional[string] `json:"holderName"`
}

// AccountEntity is the accounting community an invoice is booked against
type AccountEntity struct {
	CommunityName     string `json:"communityName" yaml:"community"`
	LedgerAccountCode string `json:"ledgerAccountCode" yaml:"account"`
	ReferenceAddress  string `json:"referenceAddress,omitempty" yaml:"reference_address,omitempty"`
}

// ResolutionTier records which lookup produced the community
type ResolutionTier int

const (
	TierIdentifier  ResolutionTier = 1 // service identifier key
	TierAddress     ResolutionTier = 2 // (type, normalized address)
	TierRoutingCode ResolutionTier = 3 // policy / supply code inside entry values
	TierMeter       ResolutionTier = 4 // meter code key
	TierTypeDefault ResolutionTier = 5 // per-type fallback
)

func (t ResolutionTier) String() string {
	switch t {
	case TierIdentifier:
		return "identifier"
	case TierAddress:
		return "address"
	case TierRoutingCode:
		return "routing_code"
	case TierMeter:
		return "meter"
	case TierTypeDefault:
		return "type_default"
	default:
		return "unknown"
	}
}

// Specific reports whether the community came from a table match rather
// than the type default
func (t ResolutionTier) Specific() bool {
	return t >= TierIdentifier && t <= TierMeter
}

// ConfidenceTier grades how completely an invoice was extracted
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "High"
	ConfidenceMedium ConfidenceTier = "Medium"
	ConfidenceLow    ConfidenceTier = "Low"
)

// Rank orders tiers so that Low < Medium < High
func (c ConfidenceTier) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// Warning is a non-critical extraction issue
type Warning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResolvedInvoice is the final structured record for one invoice
type ResolvedInvoice struct {
	ExtractedFields

	CommunityName       string         `json:"communityName"`
	LedgerAccountCode   string         `json:"ledgerAccountCode"`
	ResolutionTier      ResolutionTier `json:"resolutionTier"`
	ConfidenceTier      ConfidenceTier `json:"confidenceTier"`
	SynthesizedFilename string         `json:"synthesizedFilename"`
	LedgerMemo          string         `json:"ledgerMemo"`
	Warnings            []Warning      `json:"warnings"`
}

// RawInvoiceText is the input of one processing call
type RawInvoiceText struct {
	Text         string `json:"text"`
	FilenameHint string `json:"filenameHint,omitempty"`
}

// InvoiceRecord is a processed invoice as kept by the service layer
type InvoiceRecord struct {
	ID          uuid.UUID       `json:"id"`
	BatchID     uuid.UUID       `json:"batchId"`
	SourceName  string          `json:"sourceName"`           // uploaded filename
	StoredPath  string          `json:"storedPath,omitempty"` // bucket/object when stored
	Processed   bool            `json:"processed"`            // booked by the user
	ProcessedAt time.Time       `json:"processedAt"`          // when extraction ran
	BookedAt    *time.Time      `json:"bookedAt,omitempty"`   // when marked processed
	Error       string          `json:"error,omitempty"`      // text extraction failure
	Invoice     ResolvedInvoice `json:"invoice"`
}
