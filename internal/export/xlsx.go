// Package export renders a processed batch as an XLSX ledger sheet.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ddmr2811/Facturas/internal/invoice"
	"github.com/ddmr2811/Facturas/internal/models"
)

// Sheet is the name of the ledger sheet
const Sheet = "Facturas"

var headers = []string{
	"Type",
	"Community",
	"Account",
	"Account Description",
	"Amount",
	"Issue Date",
	"Billing Period",
	"Memo",
	"Filename",
	"Confidence",
	"Resolution",
	"Processed",
	"Source",
}

// BatchXLSX returns the workbook bytes of one batch, one row per invoice in
// batch order
func BatchXLSX(b *invoice.Batch) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(Sheet, cell, h)
	}

	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	for i, rec := range b.Records {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(Sheet, cell, v)
		}

		inv := rec.Invoice
		desc, _ := models.AccountDescription(inv.LedgerAccountCode)

		write(1, string(inv.ExpenseType))
		write(2, inv.CommunityName)
		write(3, inv.LedgerAccountCode)
		write(4, desc)
		if amount, ok := inv.AmountTotal.Get(); ok {
			write(5, amount.InexactFloat64())
			cell, _ := excelize.CoordinatesToCellName(5, row)
			_ = f.SetCellStyle(Sheet, cell, cell, amountStyle)
		}
		write(6, inv.IssueDate.OrElse(""))
		write(7, inv.BillingPeriod.OrElse(""))
		write(8, inv.LedgerMemo)
		write(9, inv.SynthesizedFilename)
		write(10, string(inv.ConfidenceTier))
		write(11, inv.ResolutionTier.String())
		write(12, rec.Processed)
		write(13, rec.SourceName)
	}

	_ = f.SetColWidth(Sheet, "A", "A", 10)
	_ = f.SetColWidth(Sheet, "B", "B", 28)
	_ = f.SetColWidth(Sheet, "C", "C", 12)
	_ = f.SetColWidth(Sheet, "D", "D", 24)
	_ = f.SetColWidth(Sheet, "E", "G", 14)
	_ = f.SetColWidth(Sheet, "H", "I", 60)
	_ = f.SetPanes(Sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
