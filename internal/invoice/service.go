package invoice

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ddmr2811/Facturas/internal/models"
)

var (
	// ErrNoTextExtractor is returned for binary documents when no text
	// extractor is configured
	ErrNoTextExtractor = errors.New("no text extractor configured")
	// ErrNotStored is returned when a document has no stored copy
	ErrNotStored = errors.New("document not stored")
)

// TextExtractor turns a stored document into raw text
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// DocumentStore keeps the original documents under their synthesized name.
// id is the invoice record id and must make the stored path unique.
type DocumentStore interface {
	PutDocument(ctx context.Context, owner string, id uuid.UUID, name string, data []byte, contentType string) (string, error)
	DocumentURL(ctx context.Context, path string) (string, error)
}

// Repository persists processed batches
type Repository interface {
	SaveBatch(ctx context.Context, b *Batch) error
	SetProcessed(ctx context.Context, id uuid.UUID, processed bool) error
}

// Upload is one uploaded document
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// MemoLine is the ledger movement of one invoice
type MemoLine struct {
	Memo        string `json:"memo"`
	Account     string `json:"account"`
	Description string `json:"description,omitempty"`
	Community   string `json:"community"`
	Amount      string `json:"amount,omitempty"`
}

// ServiceConfig holds the optional collaborators of a Service. Documents
// and Repository may be nil.
type ServiceConfig struct {
	Text       TextExtractor
	Documents  DocumentStore
	Repository Repository
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Service runs uploads through the processor and keeps each owner's
// latest batch
type Service struct {
	proc    *Processor
	text    TextExtractor
	docs    DocumentStore
	repo    Repository
	batches *BatchStore
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates a service around proc
func NewService(proc *Processor, cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		proc:    proc,
		text:    cfg.Text,
		docs:    cfg.Documents,
		repo:    cfg.Repository,
		batches: NewBatchStore(),
		log:     cfg.Logger,
		now:     now,
	}
}

// Processor returns the underlying processor
func (s *Service) Processor() *Processor {
	return s.proc
}

// ProcessUploads extracts text from every upload, processes the batch and
// replaces owner's previous batch. A document whose text cannot be read is
// still processed (as empty text) and carries the error in its record.
// The returned batch is the caller's own copy; later toggles do not touch it.
func (s *Service) ProcessUploads(ctx context.Context, owner string, uploads []Upload) (*Batch, error) {
	batch := NewBatch(owner, s.now())
	log := s.log.With().Str("owner", owner).Str("batch", batch.ID.String()).Logger()

	inputs := make([]models.RawInvoiceText, len(uploads))
	textErrs := make([]string, len(uploads))
	for i, u := range uploads {
		text, err := s.documentText(ctx, u)
		if err != nil {
			log.Warn().Err(err).Str("file", u.Name).Msg("text extraction failed")
			textErrs[i] = err.Error()
		}
		inputs[i] = models.RawInvoiceText{Text: text, FilenameHint: u.Name}
	}

	results, err := s.proc.ProcessAll(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to process batch: %w", err)
	}

	for i, res := range results {
		rec := models.InvoiceRecord{
			ID:          uuid.New(),
			BatchID:     batch.ID,
			SourceName:  uploads[i].Name,
			ProcessedAt: batch.CreatedAt,
			Error:       textErrs[i],
			Invoice:     res,
		}
		if s.docs != nil {
			name := res.SynthesizedFilename + documentExt(uploads[i])
			path, err := s.docs.PutDocument(ctx, owner, rec.ID, name, uploads[i].Data, uploads[i].ContentType)
			if err != nil {
				log.Warn().Err(err).Str("file", uploads[i].Name).Msg("document not stored")
			} else {
				rec.StoredPath = path
			}
		}
		batch.Records = append(batch.Records, rec)
	}

	if s.repo != nil {
		if err := s.repo.SaveBatch(ctx, batch); err != nil {
			log.Warn().Err(err).Msg("batch not persisted")
		}
	}

	s.batches.Put(batch)
	log.Info().Int("invoices", len(batch.Records)).Msg("batch processed")
	return batch, nil
}

// Batch returns owner's current batch
func (s *Service) Batch(owner string) (*Batch, bool) {
	return s.batches.Get(owner)
}

// Record returns one invoice of owner's current batch
func (s *Service) Record(owner string, id uuid.UUID) (models.InvoiceRecord, error) {
	return s.batches.Record(owner, id)
}

// Clear drops owner's current batch
func (s *Service) Clear(owner string) {
	s.batches.Clear(owner)
}

// ToggleProcessed flips the booked flag of an invoice
func (s *Service) ToggleProcessed(ctx context.Context, owner string, id uuid.UUID) (models.InvoiceRecord, error) {
	rec, err := s.batches.Toggle(owner, id, s.now())
	if err != nil {
		return rec, err
	}
	if s.repo != nil {
		if err := s.repo.SetProcessed(ctx, id, rec.Processed); err != nil {
			s.log.Warn().Err(err).Str("invoice", id.String()).Msg("processed flag not persisted")
		}
	}
	return rec, nil
}

// Memo returns the ledger movement of one invoice
func (s *Service) Memo(owner string, id uuid.UUID) (MemoLine, error) {
	rec, err := s.batches.Record(owner, id)
	if err != nil {
		return MemoLine{}, err
	}
	inv := rec.Invoice
	line := MemoLine{
		Memo:      inv.LedgerMemo,
		Account:   inv.LedgerAccountCode,
		Community: inv.CommunityName,
	}
	line.Description, _ = models.AccountDescription(inv.LedgerAccountCode)
	if amount, ok := inv.AmountTotal.Get(); ok {
		line.Amount = s.proc.Labels().Amount(amount)
	}
	return line, nil
}

// DocumentURL returns a download URL for the stored copy of an invoice
func (s *Service) DocumentURL(ctx context.Context, owner string, id uuid.UUID) (string, error) {
	rec, err := s.batches.Record(owner, id)
	if err != nil {
		return "", err
	}
	if s.docs == nil || rec.StoredPath == "" {
		return "", ErrNotStored
	}
	return s.docs.DocumentURL(ctx, rec.StoredPath)
}

func (s *Service) documentText(ctx context.Context, u Upload) (string, error) {
	if isPlainText(u) {
		return string(u.Data), nil
	}
	if s.text == nil {
		return "", ErrNoTextExtractor
	}
	return s.text.ExtractText(ctx, u.Data)
}

func isPlainText(u Upload) bool {
	return strings.HasPrefix(u.ContentType, "text/") || strings.EqualFold(filepath.Ext(u.Name), ".txt")
}

func documentExt(u Upload) string {
	if ext := filepath.Ext(u.Name); ext != "" {
		return strings.ToLower(ext)
	}
	if isPlainText(u) {
		return ".txt"
	}
	return ".pdf"
}
