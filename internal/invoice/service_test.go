package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddmr2811/Facturas/internal/models"
)

type fakeText struct {
	text string
	err  error
}

func (f fakeText) ExtractText(context.Context, []byte) (string, error) {
	return f.text, f.err
}

type fakeDocs struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeDocs) PutDocument(_ context.Context, owner string, id uuid.UUID, name string, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	return owner + "/" + id.String() + "/" + name, nil
}

func (f *fakeDocs) DocumentURL(_ context.Context, path string) (string, error) {
	return "https://files.local/" + path, nil
}

type fakeRepo struct {
	saved     int
	processed map[uuid.UUID]bool
	err       error
}

func (f *fakeRepo) SaveBatch(context.Context, *Batch) error {
	f.saved++
	return f.err
}

func (f *fakeRepo) SetProcessed(_ context.Context, id uuid.UUID, processed bool) error {
	if f.processed == nil {
		f.processed = make(map[uuid.UUID]bool)
	}
	f.processed[id] = processed
	return f.err
}

var fixedNow = time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)

func newTestService(cfg ServiceConfig) *Service {
	cfg.Now = func() time.Time { return fixedNow }
	return NewService(NewProcessor(models.ExtractionConfig{}, testStore()), cfg)
}

func TestProcessUploads(t *testing.T) {
	docs := &fakeDocs{}
	repo := &fakeRepo{}
	s := newTestService(ServiceConfig{
		Text:       fakeText{text: powerInvoice},
		Documents:  docs,
		Repository: repo,
	})

	batch, err := s.ProcessUploads(context.Background(), "ana", []Upload{
		{Name: "iberdrola.PDF", ContentType: "application/pdf", Data: []byte("%PDF")},
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("Suministro de agua\nTOTAL: 9,50 €")},
	})
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)

	first := batch.Records[0]
	assert.Equal(t, "iberdrola.PDF", first.SourceName)
	assert.Equal(t, batch.ID, first.BatchID)
	assert.Equal(t, fixedNow, first.ProcessedAt)
	assert.Equal(t, "RECONQUISTA 14", first.Invoice.CommunityName)
	assert.Equal(t, "ana/"+first.ID.String()+"/Power Avda. Reconquista 14 02-04-2024 121,00EUR.pdf", first.StoredPath)
	assert.Empty(t, first.Error)

	second := batch.Records[1]
	assert.Equal(t, models.ExpenseWater, second.Invoice.ExpenseType)
	assert.Equal(t, "ana/"+second.ID.String()+"/Water COMUNIDAD AGUA 9,50EUR.txt", second.StoredPath)

	assert.Equal(t, 1, repo.saved)
	assert.Len(t, docs.names, 2)

	got, ok := s.Batch("ana")
	require.True(t, ok)
	assert.Equal(t, batch.ID, got.ID)
}

func TestProcessUploadsSameNameStoredApart(t *testing.T) {
	docs := &fakeDocs{}
	s := newTestService(ServiceConfig{Text: fakeText{}, Documents: docs})

	batch, err := s.ProcessUploads(context.Background(), "ana", []Upload{
		{Name: "scan1.pdf", Data: []byte("%PDF-1")},
		{Name: "scan2.pdf", Data: []byte("%PDF-2")},
	})
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)

	assert.Equal(t, []string{"Other COMUNIDAD GENERAL 0EUR.pdf", "Other COMUNIDAD GENERAL 0EUR.pdf"}, docs.names)
	assert.NotEqual(t, batch.Records[0].StoredPath, batch.Records[1].StoredPath)

	first, err := s.DocumentURL(context.Background(), "ana", batch.Records[0].ID)
	require.NoError(t, err)
	second, err := s.DocumentURL(context.Background(), "ana", batch.Records[1].ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestProcessUploadsResultIndependentOfToggles(t *testing.T) {
	s := newTestService(ServiceConfig{})
	batch, err := s.ProcessUploads(context.Background(), "ana", []Upload{{Name: "a.txt", Data: []byte(powerInvoice)}})
	require.NoError(t, err)
	id := batch.Records[0].ID

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, err := s.ToggleProcessed(context.Background(), "ana", id)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			assert.NoError(t, json.NewEncoder(io.Discard).Encode(batch))
		}
	}()
	wg.Wait()

	assert.False(t, batch.Records[0].Processed)
	assert.Nil(t, batch.Records[0].BookedAt)
}

func TestProcessUploadsTextFailure(t *testing.T) {
	s := newTestService(ServiceConfig{Text: fakeText{err: errors.New("broken pdf")}})

	batch, err := s.ProcessUploads(context.Background(), "ana", []Upload{{Name: "scan.pdf", Data: []byte{1}}})
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)

	rec := batch.Records[0]
	assert.Equal(t, "broken pdf", rec.Error)
	assert.Equal(t, models.ConfidenceLow, rec.Invoice.ConfidenceTier)
	assert.Empty(t, rec.StoredPath)
}

func TestProcessUploadsWithoutExtractor(t *testing.T) {
	s := newTestService(ServiceConfig{})

	batch, err := s.ProcessUploads(context.Background(), "ana", []Upload{{Name: "scan.pdf", Data: []byte{1}}})
	require.NoError(t, err)
	assert.Equal(t, ErrNoTextExtractor.Error(), batch.Records[0].Error)
}

func TestProcessUploadsStorageFailureKeepsRecord(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	s := newTestService(ServiceConfig{
		Documents:  &fakeDocs{err: errors.New("bucket missing")},
		Repository: repo,
	})

	batch, err := s.ProcessUploads(context.Background(), "ana", []Upload{{Name: "a.txt", Data: []byte(powerInvoice)}})
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Empty(t, batch.Records[0].StoredPath)
	assert.Equal(t, 1, repo.saved)
}

func TestServiceToggleAndMemo(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestService(ServiceConfig{Repository: repo, Documents: &fakeDocs{}})

	batch, err := s.ProcessUploads(context.Background(), "ana", []Upload{{Name: "a.txt", Data: []byte(powerInvoice)}})
	require.NoError(t, err)
	id := batch.Records[0].ID

	rec, err := s.ToggleProcessed(context.Background(), "ana", id)
	require.NoError(t, err)
	assert.True(t, rec.Processed)
	require.NotNil(t, rec.BookedAt)
	assert.Equal(t, fixedNow, *rec.BookedAt)
	assert.True(t, repo.processed[id])

	rec, err = s.ToggleProcessed(context.Background(), "ana", id)
	require.NoError(t, err)
	assert.False(t, rec.Processed)
	assert.Nil(t, rec.BookedAt)
	assert.False(t, repo.processed[id])

	memo, err := s.Memo("ana", id)
	require.NoError(t, err)
	assert.Equal(t, "6282014", memo.Account)
	assert.Equal(t, "121,00EUR", memo.Amount)
	assert.Equal(t, rec.Invoice.LedgerMemo, memo.Memo)

	url, err := s.DocumentURL(context.Background(), "ana", id)
	require.NoError(t, err)
	assert.Contains(t, url, "https://files.local/ana/")

	_, err = s.Memo("bob", id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ToggleProcessed(context.Background(), "ana", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDocumentURLNotStored(t *testing.T) {
	s := newTestService(ServiceConfig{})
	batch, err := s.ProcessUploads(context.Background(), "ana", []Upload{{Name: "a.txt", Data: []byte("x")}})
	require.NoError(t, err)

	_, err = s.DocumentURL(context.Background(), "ana", batch.Records[0].ID)
	assert.ErrorIs(t, err, ErrNotStored)
}
