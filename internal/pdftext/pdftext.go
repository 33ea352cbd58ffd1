// Package pdftext pulls the text layer out of PDF invoices.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const defaultMaxPages = 3

var (
	// ErrEmpty is returned for zero-length input
	ErrEmpty = errors.New("empty document")
	// ErrUnreadable is returned when the document is not a readable PDF
	ErrUnreadable = errors.New("unreadable pdf")
)

// Extractor reads the first MaxPages pages of a PDF. Invoices put every
// field the cascade needs on the first pages.
type Extractor struct {
	MaxPages int
}

// New creates an extractor reading at most maxPages pages (3 when <= 0)
func New(maxPages int) *Extractor {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Extractor{MaxPages: maxPages}
}

// ExtractText returns the page text row by row, words separated by a space
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}

	// the reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var sb strings.Builder
	pages := r.NumPage()
	if e.MaxPages > 0 && pages > e.MaxPages {
		pages = e.MaxPages
	}
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		writePage(&sb, p)
	}
	return sb.String(), nil
}

func writePage(sb *strings.Builder, p pdf.Page) {
	rows, err := p.GetTextByRow()
	if err != nil || len(rows) == 0 {
		if plain, err := p.GetPlainText(nil); err == nil {
			sb.WriteString(plain)
			sb.WriteString("\n")
		}
		return
	}
	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, word := range row.Content {
			if s := strings.TrimSpace(word.S); s != "" {
				words = append(words, s)
			}
		}
		if len(words) > 0 {
			sb.WriteString(strings.Join(words, " "))
			sb.WriteString("\n")
		}
	}
}
