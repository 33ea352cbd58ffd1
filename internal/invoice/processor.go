// Package invoice wires extraction, resolution, grading and labelling into
// the process operation, and runs it over batches of documents.
package invoice

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ddmr2811/Facturas/internal/extract"
	"github.com/ddmr2811/Facturas/internal/label"
	"github.com/ddmr2811/Facturas/internal/models"
	"github.com/ddmr2811/Facturas/internal/resolve"
	"github.com/ddmr2811/Facturas/internal/services"
)

const defaultWorkers = 4

// Processor turns raw invoice text into a ResolvedInvoice. It keeps no
// per-call state; the lookup tables are read from the store once per call.
type Processor struct {
	extractor *extract.Extractor
	grader    *services.ConfidenceGrader
	labels    *label.Synthesizer
	tables    *resolve.Store
	workers   int
	log       zerolog.Logger
}

// NewProcessor creates a processor for the given extraction rules and table
// store. A nil store means empty tables.
func NewProcessor(cfg models.ExtractionConfig, tables *resolve.Store) *Processor {
	cfg = cfg.WithDefaults()
	if tables == nil {
		tables = resolve.NewStore(nil)
	}
	return &Processor{
		extractor: extract.New(cfg),
		grader:    services.NewConfidenceGrader(),
		labels:    label.New(cfg.CurrencySuffix),
		tables:    tables,
		workers:   defaultWorkers,
		log:       zerolog.Nop(),
	}
}

// WithWorkers bounds ProcessAll concurrency
func (p *Processor) WithWorkers(n int) *Processor {
	if n > 0 {
		p.workers = n
	}
	return p
}

// WithLogger sets the logger used for per-document debug lines
func (p *Processor) WithLogger(l zerolog.Logger) *Processor {
	p.log = l
	return p
}

// Tables returns the table store the processor resolves against
func (p *Processor) Tables() *resolve.Store {
	return p.tables
}

// Labels returns the filename and memo synthesizer
func (p *Processor) Labels() *label.Synthesizer {
	return p.labels
}

// Process extracts, resolves, grades and labels one invoice. It always
// returns a complete record; poor input yields Low confidence.
func (p *Processor) Process(in models.RawInvoiceText) models.ResolvedInvoice {
	tables := p.tables.Load()

	fields := p.extractor.Extract(in, tables)
	res := tables.Resolve(fields)
	grade := p.grader.Validate(fields, res.Tier)

	out := models.ResolvedInvoice{
		ExtractedFields:     fields,
		CommunityName:       res.CommunityName,
		LedgerAccountCode:   res.LedgerAccountCode,
		ResolutionTier:      res.Tier,
		ConfidenceTier:      grade.Tier,
		SynthesizedFilename: p.labels.Filename(fields, res.CommunityName),
		LedgerMemo:          p.labels.Memo(fields),
		Warnings:            grade.Warnings,
	}

	p.log.Debug().
		Str("hint", in.FilenameHint).
		Str("type", string(fields.ExpenseType)).
		Str("community", out.CommunityName).
		Stringer("tier", res.Tier).
		Str("confidence", string(out.ConfidenceTier)).
		Msg("invoice processed")

	return out
}

// ProcessAll processes inputs concurrently and returns results in input
// order. Cancellation is checked between documents.
func (p *Processor) ProcessAll(ctx context.Context, inputs []models.RawInvoiceText) ([]models.ResolvedInvoice, error) {
	out := make([]models.ResolvedInvoice, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = p.Process(inputs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
