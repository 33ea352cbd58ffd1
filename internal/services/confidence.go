package services

import (
	"github.com/ddmr2811/Facturas/internal/models"
)

// ValidationError represents a missing critical field
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// ValidationResult is the response from grading
type ValidationResult struct {
	Tier        models.ConfidenceTier `json:"tier"`
	Valid       bool                  `json:"valid"` // every critical field holds
	NeedsReview bool                  `json:"needs_review"`
	Critical    int                   `json:"critical"`
	Optional    int                   `json:"optional"`
	Errors      []ValidationError     `json:"errors"`
	Warnings    []models.Warning      `json:"warnings"`
}

// ConfidenceGrader grades extraction completeness.
// Critical: expense type, amount, community from a table tier.
// Optional: address, issue date, billing period.
type ConfidenceGrader struct {
	minOptional int // optional fields needed for High
}

// NewConfidenceGrader creates a grader requiring 2 of 3 optional fields
// for High confidence
func NewConfidenceGrader() *ConfidenceGrader {
	return &ConfidenceGrader{minOptional: 2}
}

// Grade returns only the confidence tier
func (g *ConfidenceGrader) Grade(f models.ExtractedFields, tier models.ResolutionTier) models.ConfidenceTier {
	return g.Validate(f, tier).Tier
}

// Validate checks critical and optional fields. Warnings never change the
// tier.
func (g *ConfidenceGrader) Validate(f models.ExtractedFields, tier models.ResolutionTier) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []models.Warning{},
	}

	// 1. Critical fields
	g.validateCritical(f, tier, result)

	// 2. Optional fields
	g.validateOptional(f, result)

	// 3. Routing hints
	g.validateRouting(f, tier, result)

	result.Valid = len(result.Errors) == 0
	switch {
	case result.Valid && result.Optional >= g.minOptional:
		result.Tier = models.ConfidenceHigh
	case result.Valid:
		result.Tier = models.ConfidenceMedium
	default:
		result.Tier = models.ConfidenceLow
	}
	result.NeedsReview = result.Tier != models.ConfidenceHigh || len(result.Warnings) > 0

	return result
}

// validateCritical counts the fields High and Medium both require
func (g *ConfidenceGrader) validateCritical(f models.ExtractedFields, tier models.ResolutionTier, result *ValidationResult) {
	if f.ExpenseType.Valid() {
		result.Critical++
	} else {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "expense_type",
			Code:    "invalid_expense_type",
			Message: "Expense type outside the known categories",
		})
	}

	if _, ok := f.AmountTotal.Get(); ok {
		result.Critical++
	} else {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "amount_total",
			Code:    "missing_amount",
			Message: "No total amount found",
		})
	}

	if tier.Specific() {
		result.Critical++
	} else {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "community",
			Code:    "default_community",
			Message: "Community assigned from the expense type default",
		})
	}
}

// validateOptional counts address, issue date and billing period
func (g *ConfidenceGrader) validateOptional(f models.ExtractedFields, result *ValidationResult) {
	checks := []struct {
		found bool
		field string
		code  string
		msg   string
	}{
		{f.Address.Found, "address", "missing_address", "No supply address found"},
		{f.IssueDate.Found, "issue_date", "missing_issue_date", "No plausible issue date found"},
		{f.BillingPeriod.Found, "billing_period", "missing_billing_period", "No billing period found"},
	}
	for _, c := range checks {
		if c.found {
			result.Optional++
			continue
		}
		result.Warnings = append(result.Warnings, models.Warning{Field: c.field, Code: c.code, Message: c.msg})
	}
}

// validateRouting flags invoices that fell to the default with no key to
// route them by
func (g *ConfidenceGrader) validateRouting(f models.ExtractedFields, tier models.ResolutionTier, result *ValidationResult) {
	if tier.Specific() {
		return
	}
	if !f.ServiceIdentifier.Found && !f.MeterCode.Found && !f.PolicyNumber.Found && !f.SupplyCode.Found {
		result.Warnings = append(result.Warnings, models.Warning{
			Field:   "service_identifier",
			Code:    "no_routing_keys",
			Message: "No identifier, meter, policy or supply code found",
		})
		return
	}
	result.Warnings = append(result.Warnings, models.Warning{
		Field:   "service_identifier",
		Code:    "unknown_routing_keys",
		Message: "Routing keys found but not present in the lookup tables",
	})
}
