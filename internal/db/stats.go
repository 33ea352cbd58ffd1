package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ddmr2811/Facturas/internal/models"
)

// TypeStats totals one expense type for a month
type TypeStats struct {
	ExpenseType models.ExpenseType `json:"expense_type"`
	Invoices    int                `json:"invoices"`
	Processed   int                `json:"processed"`
	Pending     int                `json:"pending"`
	LowConf     int                `json:"low_confidence"`
	Total       decimal.Decimal    `json:"total"`
}

// MonthlyStats represents the current month's totals per expense type
type MonthlyStats struct {
	Month string      `json:"month"`
	Types []TypeStats `json:"types"`
}

// GetMonthlyStats returns owner's statistics for the current month
func GetMonthlyStats(ctx context.Context, owner string) (*MonthlyStats, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	query := `
		SELECT
		    expense_type,
		    COUNT(*) as invoices,
		    COUNT(*) FILTER (WHERE processed) as processed,
		    COUNT(*) FILTER (WHERE NOT processed) as pending,
		    COUNT(*) FILTER (WHERE confidence = 'Low') as low_confidence,
		    COALESCE(SUM(total), 0)::text as total
		FROM facturas
		WHERE owner = $1
		AND DATE_TRUNC('month', created_at) = DATE_TRUNC('month', CURRENT_DATE)
		GROUP BY expense_type
		ORDER BY expense_type
	`

	rows, err := Pool.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &MonthlyStats{Month: time.Now().Format("2006-01"), Types: []TypeStats{}}
	for rows.Next() {
		var (
			s     TypeStats
			typ   string
			total string
		)
		if err := rows.Scan(&typ, &s.Invoices, &s.Processed, &s.Pending, &s.LowConf, &total); err != nil {
			return nil, err
		}
		s.ExpenseType = models.ExpenseType(typ)
		if s.Total, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		stats.Types = append(stats.Types, s)
	}
	return stats, rows.Err()
}
