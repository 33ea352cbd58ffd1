package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ddmr2811/Facturas/internal/models"
)

func completeFields() models.ExtractedFields {
	return models.ExtractedFields{
		ExpenseType:   models.ExpensePower,
		AmountTotal:   models.Some(decimal.RequireFromString("121.00")),
		Address:       models.Some("AVDA RECONQUISTA 14"),
		IssueDate:     models.Some("02/04/2024"),
		BillingPeriod: models.Some("ENE 2024 - FEB 2024"),
	}
}

func TestGradeTiers(t *testing.T) {
	g := NewConfidenceGrader()

	full := completeFields()

	twoOptional := completeFields()
	twoOptional.BillingPeriod = models.None[string]()

	oneOptional := twoOptional
	oneOptional.IssueDate = models.None[string]()

	noAmount := completeFields()
	noAmount.AmountTotal = models.None[decimal.Decimal]()

	tests := []struct {
		name   string
		fields models.ExtractedFields
		tier   models.ResolutionTier
		want   models.ConfidenceTier
	}{
		{"everything", full, models.TierIdentifier, models.ConfidenceHigh},
		{"two optional", twoOptional, models.TierAddress, models.ConfidenceHigh},
		{"one optional", oneOptional, models.TierMeter, models.ConfidenceMedium},
		{"missing amount", noAmount, models.TierIdentifier, models.ConfidenceLow},
		{"type default", full, models.TierTypeDefault, models.ConfidenceLow},
		{"nothing", models.ExtractedFields{ExpenseType: models.ExpenseOther}, models.TierTypeDefault, models.ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Grade(tt.fields, tt.tier))
		})
	}
}

func TestGradeMonotonicInOptionalFields(t *testing.T) {
	g := NewConfidenceGrader()
	setters := []func(*models.ExtractedFields){
		func(f *models.ExtractedFields) { f.Address = models.Some("CALLE SOL 7") },
		func(f *models.ExtractedFields) { f.IssueDate = models.Some("01/01/2024") },
		func(f *models.ExtractedFields) { f.BillingPeriod = models.Some("ENE 2024") },
	}

	for _, tier := range []models.ResolutionTier{models.TierIdentifier, models.TierTypeDefault} {
		for _, hasAmount := range []bool{true, false} {
			// every subset of optional fields, adding one at a time
			for mask := 0; mask < 8; mask++ {
				f := models.ExtractedFields{ExpenseType: models.ExpenseWater}
				if hasAmount {
					f.AmountTotal = models.Some(decimal.NewFromInt(10))
				}
				for i, set := range setters {
					if mask&(1<<i) != 0 {
						set(&f)
					}
				}
				before := g.Grade(f, tier)
				for i, set := range setters {
					if mask&(1<<i) != 0 {
						continue
					}
					g2 := f
					set(&g2)
					after := g.Grade(g2, tier)
					assert.GreaterOrEqual(t, after.Rank(), before.Rank())
				}
			}
		}
	}
}

func TestValidateWarnings(t *testing.T) {
	g := NewConfidenceGrader()

	f := models.ExtractedFields{
		ExpenseType: models.ExpenseWater,
		AmountTotal: models.Some(decimal.NewFromInt(5)),
		MeterCode:   models.Some("ABC1234567"),
	}
	r := g.Validate(f, models.TierTypeDefault)

	assert.False(t, r.Valid)
	assert.True(t, r.NeedsReview)
	assert.Equal(t, 2, r.Critical)
	assert.Equal(t, 0, r.Optional)
	if assert.Len(t, r.Errors, 1) {
		assert.Equal(t, "default_community", r.Errors[0].Code)
	}

	var codes []string
	for _, w := range r.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"missing_address", "missing_issue_date", "missing_billing_period", "unknown_routing_keys"}, codes)

	r = g.Validate(completeFields(), models.TierIdentifier)
	assert.True(t, r.Valid)
	assert.False(t, r.NeedsReview)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, models.ConfidenceHigh, r.Tier)
}
