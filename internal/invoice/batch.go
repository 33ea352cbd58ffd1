package invoice

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ddmr2811/Facturas/internal/models"
)

// ErrNotFound is returned for unknown invoice ids
var ErrNotFound = errors.New("invoice not found")

// Batch is the set of invoices processed from one upload
type Batch struct {
	ID        uuid.UUID              `json:"id"`
	Owner     string                 `json:"owner"`
	CreatedAt time.Time              `json:"createdAt"`
	Records   []models.InvoiceRecord `json:"records"`
}

// NewBatch creates an empty batch for owner
func NewBatch(owner string, now time.Time) *Batch {
	return &Batch{ID: uuid.New(), Owner: owner, CreatedAt: now}
}

// Find returns the record with id
func (b *Batch) Find(id uuid.UUID) (*models.InvoiceRecord, bool) {
	for i := range b.Records {
		if b.Records[i].ID == id {
			return &b.Records[i], true
		}
	}
	return nil, false
}

// Summary counts records per confidence tier
func (b *Batch) Summary() map[models.ConfidenceTier]int {
	out := map[models.ConfidenceTier]int{
		models.ConfidenceHigh:   0,
		models.ConfidenceMedium: 0,
		models.ConfidenceLow:    0,
	}
	for _, r := range b.Records {
		out[r.Invoice.ConfidenceTier]++
	}
	return out
}

// BatchStore keeps the latest batch of each owner. Storing a new batch
// replaces the previous one.
type BatchStore struct {
	mu      sync.RWMutex
	batches map[string]*Batch
}

// NewBatchStore creates an empty store
func NewBatchStore() *BatchStore {
	return &BatchStore{batches: make(map[string]*Batch)}
}

// Put replaces owner's current batch with a copy of b
func (s *BatchStore) Put(b *Batch) {
	cp := b.clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.Owner] = cp
}

// Get returns a copy of owner's current batch
func (s *BatchStore) Get(owner string) (*Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[owner]
	if !ok {
		return nil, false
	}
	return b.clone(), true
}

// clone copies the record slice; BookedAt is replaced, never written
// through, so sharing the pointers is safe
func (b *Batch) clone() *Batch {
	cp := *b
	cp.Records = append([]models.InvoiceRecord(nil), b.Records...)
	return &cp
}

// Clear drops owner's current batch
func (s *BatchStore) Clear(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, owner)
}

// Toggle flips the processed flag of an invoice
func (s *BatchStore) Toggle(owner string, id uuid.UUID, now time.Time) (models.InvoiceRecord, error) {
	return s.update(owner, id, func(rec *models.InvoiceRecord) {
		setProcessed(rec, !rec.Processed, now)
	})
}

func (s *BatchStore) update(owner string, id uuid.UUID, fn func(*models.InvoiceRecord)) (models.InvoiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[owner]
	if !ok {
		return models.InvoiceRecord{}, ErrNotFound
	}
	rec, ok := b.Find(id)
	if !ok {
		return models.InvoiceRecord{}, ErrNotFound
	}
	fn(rec)
	return *rec, nil
}

func setProcessed(rec *models.InvoiceRecord, processed bool, now time.Time) {
	rec.Processed = processed
	rec.BookedAt = nil
	if processed {
		t := now
		rec.BookedAt = &t
	}
}

// Record returns one invoice of owner's batch
func (s *BatchStore) Record(owner string, id uuid.UUID) (models.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[owner]
	if !ok {
		return models.InvoiceRecord{}, ErrNotFound
	}
	rec, ok := b.Find(id)
	if !ok {
		return models.InvoiceRecord{}, ErrNotFound
	}
	return *rec, nil
}
