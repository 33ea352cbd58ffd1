package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ddmr2811/Facturas/internal/invoice"
	"github.com/ddmr2811/Facturas/internal/models"
)

const insertInvoice = `
	INSERT INTO facturas (
		id, batch_id, owner, source_name, stored_path, extract_error,
		expense_type, service_identifier, address, total, issue_date,
		billing_period, supply_code, policy_number, meter_code, holder_name,
		community, account, resolution_tier, confidence, filename, memo,
		warnings, processed, booked_at, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	RETURNING created_at
`

// SaveBatch stores every record of a batch in one transaction
func SaveBatch(ctx context.Context, b *invoice.Batch) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range b.Records {
		if err := saveInvoice(ctx, tx, b.Owner, &b.Records[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func saveInvoice(ctx context.Context, tx pgx.Tx, owner string, rec *models.InvoiceRecord) error {
	inv := rec.Invoice
	warnings, err := json.Marshal(inv.Warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}

	var total *decimal.Decimal
	if d, ok := inv.AmountTotal.Get(); ok {
		total = &d
	}

	err = tx.QueryRow(ctx, insertInvoice,
		rec.ID, rec.BatchID, owner, rec.SourceName, rec.StoredPath, rec.Error,
		string(inv.ExpenseType), nullable(inv.ServiceIdentifier), nullable(inv.Address), total, nullable(inv.IssueDate),
		nullable(inv.BillingPeriod), nullable(inv.SupplyCode), nullable(inv.PolicyNumber), nullable(inv.MeterCode), nullable(inv.HolderName),
		inv.CommunityName, inv.LedgerAccountCode, int16(inv.ResolutionTier), string(inv.ConfidenceTier), inv.SynthesizedFilename, inv.LedgerMemo,
		string(warnings), rec.Processed, rec.BookedAt, rec.ProcessedAt,
	).Scan(&rec.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to save invoice %s: %w", rec.ID, err)
	}
	return nil
}

// ListInvoices returns owner's stored invoices, newest first
func ListInvoices(ctx context.Context, owner string, limit int) ([]models.InvoiceRecord, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := `
		SELECT id, batch_id, source_name, stored_path, extract_error,
		       expense_type, service_identifier, address, total::text, issue_date,
		       billing_period, supply_code, policy_number, meter_code, holder_name,
		       community, account, resolution_tier, confidence, filename, memo,
		       warnings::text, processed, booked_at, created_at
		FROM facturas
		WHERE owner = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := Pool.Query(ctx, query, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.InvoiceRecord
	for rows.Next() {
		rec, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanInvoice(row pgx.Row) (models.InvoiceRecord, error) {
	var rec models.InvoiceRecord
	var expenseType, confidence, warnings string
	var serviceID, address, total, issueDate *string
	var period, supply, policy, meter, holder *string
	var tier int16
	inv := &rec.Invoice

	err := row.Scan(
		&rec.ID, &rec.BatchID, &rec.SourceName, &rec.StoredPath, &rec.Error,
		&expenseType, &serviceID, &address, &total, &issueDate,
		&period, &supply, &policy, &meter, &holder,
		&inv.CommunityName, &inv.LedgerAccountCode, &tier, &confidence, &inv.SynthesizedFilename, &inv.LedgerMemo,
		&warnings, &rec.Processed, &rec.BookedAt, &rec.ProcessedAt,
	)
	if err != nil {
		return rec, err
	}

	inv.ExpenseType = models.ExpenseType(expenseType)
	inv.ServiceIdentifier = optional(serviceID)
	inv.Address = optional(address)
	inv.IssueDate = optional(issueDate)
	inv.BillingPeriod = optional(period)
	inv.SupplyCode = optional(supply)
	inv.PolicyNumber = optional(policy)
	inv.MeterCode = optional(meter)
	inv.HolderName = optional(holder)
	inv.ResolutionTier = models.ResolutionTier(tier)
	inv.ConfidenceTier = models.ConfidenceTier(confidence)
	if total != nil {
		d, err := decimal.NewFromString(*total)
		if err != nil {
			return rec, fmt.Errorf("invalid stored total %q: %w", *total, err)
		}
		inv.AmountTotal = models.Some(d)
	}
	if err := json.Unmarshal([]byte(warnings), &inv.Warnings); err != nil {
		return rec, fmt.Errorf("invalid stored warnings: %w", err)
	}
	return rec, nil
}

// SetProcessed updates the booked flag of a stored invoice
func SetProcessed(ctx context.Context, id uuid.UUID, processed bool) error {
	if Pool == nil {
		return ErrNoDatabase
	}

	var bookedAt *time.Time
	if processed {
		now := time.Now()
		bookedAt = &now
	}
	tag, err := Pool.Exec(ctx, `UPDATE facturas SET processed = $1, booked_at = $2 WHERE id = $3`, processed, bookedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return invoice.ErrNotFound
	}
	return nil
}

func nullable(o models.Optional[string]) *string {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

func optional(s *string) models.Optional[string] {
	if s == nil {
		return models.None[string]()
	}
	return models.Some(*s)
}

// Repository exposes the package pool as the batch repository
type Repository struct{}

func (Repository) SaveBatch(ctx context.Context, b *invoice.Batch) error {
	return SaveBatch(ctx, b)
}

func (Repository) SetProcessed(ctx context.Context, id uuid.UUID, processed bool) error {
	return SetProcessed(ctx, id, processed)
}
