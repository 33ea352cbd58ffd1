package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ddmr2811/Facturas/internal/config"
	"github.com/ddmr2811/Facturas/internal/db"
	"github.com/ddmr2811/Facturas/internal/export"
	"github.com/ddmr2811/Facturas/internal/invoice"
	"github.com/ddmr2811/Facturas/internal/logger"
	"github.com/ddmr2811/Facturas/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProcessInvoices runs every uploaded file through the processor and
// replaces the caller's current batch
func (h *Handler) ProcessInvoices(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	// Parse multipart form
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "Files too large or invalid form data")
		return
	}

	// accept both "file" and "files" field names
	var headers []*multipart.FileHeader
	headers = append(headers, r.MultipartForm.File["file"]...)
	headers = append(headers, r.MultipartForm.File["files"]...)
	if len(headers) == 0 {
		h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' or 'files' field)")
		return
	}
	if limit := h.config.Batch.MaxFiles; limit > 0 && len(headers) > limit {
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("Too many files: %d (max %d)", len(headers), limit))
		return
	}

	uploads := make([]invoice.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read %s", fh.Filename))
			return
		}
		uploads = append(uploads, u)
	}

	start := time.Now()
	batch, err := h.service.ProcessUploads(r.Context(), owner, uploads)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log := logger.FromContext(r.Context())
	log.Info().
		Str("owner", owner).
		Int("files", len(uploads)).
		Dur("took", time.Since(start)).
		Msg("upload processed")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"batch":    batch,
		"summary":  batch.Summary(),
		"duration": time.Since(start).Seconds(),
	})
}

func readUpload(fh *multipart.FileHeader) (invoice.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return invoice.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return invoice.Upload{}, err
	}
	return invoice.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// GetInvoices returns the caller's current batch
func (h *Handler) GetInvoices(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	batch, found := h.service.Batch(owner)
	if !found {
		batch = invoice.NewBatch(owner, time.Now())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"batch":   batch,
		"summary": batch.Summary(),
		"count":   len(batch.Records),
	})
}

// GetInvoice returns a single invoice of the current batch
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.invoiceRef(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Record(owner, id)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"invoice": rec,
	})
}

// ToggleProcessed flips the booked flag of an invoice
func (h *Handler) ToggleProcessed(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.invoiceRef(w, r)
	if !ok {
		return
	}

	rec, err := h.service.ToggleProcessed(r.Context(), owner, id)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   true,
		"processed": rec.Processed,
		"booked_at": rec.BookedAt,
	})
}

// GetMemo returns the ledger movement of an invoice
func (h *Handler) GetMemo(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.invoiceRef(w, r)
	if !ok {
		return
	}

	memo, err := h.service.Memo(owner, id)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"memo":    memo,
	})
}

// DownloadInvoice redirects to the stored, renamed document
func (h *Handler) DownloadInvoice(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.invoiceRef(w, r)
	if !ok {
		return
	}

	url, err := h.service.DocumentURL(r.Context(), owner, id)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// ExportXLSX downloads the current batch as a spreadsheet
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	batch, found := h.service.Batch(owner)
	if !found {
		h.sendError(w, http.StatusNotFound, "no processed invoices")
		return
	}

	data, err := export.BatchXLSX(batch)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to build spreadsheet")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="facturas-%s.xlsx"`, batch.CreatedAt.Format("2006-01-02")))
	w.Write(data)
}

// ClearInvoices drops the caller's current batch
func (h *Handler) ClearInvoices(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	h.service.Clear(owner)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "batch cleared",
	})
}

// GetAccounts returns the chart of accounts
func (h *Handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	codes := make([]string, 0, len(models.LedgerAccounts))
	for code := range models.LedgerAccounts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	accounts := make([]map[string]string, 0, len(codes))
	for _, code := range codes {
		accounts = append(accounts, map[string]string{
			"code":        code,
			"description": models.LedgerAccounts[code],
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"accounts": accounts,
	})
}

// ReloadTables reads the tables file again and publishes it
func (h *Handler) ReloadTables(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.owner(w, r); !ok {
		return
	}

	tables, err := config.LoadTables(h.config.TablesPath)
	if err != nil {
		h.sendError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.service.Processor().Tables().Swap(tables)

	ids, addrs := tables.Len()
	log := logger.FromContext(r.Context())
	log.Info().Int("identifiers", ids).Int("addresses", addrs).Msg("lookup tables reloaded")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":     true,
		"identifiers": ids,
		"addresses":   addrs,
	})
}

// GetHistory returns the caller's persisted invoices
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	if !db.Available() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	limit := 100
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 1000 {
		limit = v
	}

	records, err := db.ListInvoices(r.Context(), owner, limit)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get invoices: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"invoices": records,
		"count":    len(records),
	})
}

// GetStats returns monthly statistics
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	if !db.Available() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	stats, err := db.GetMonthlyStats(r.Context(), owner)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

func (h *Handler) invoiceRef(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	owner, ok := h.owner(w, r)
	if !ok {
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid invoice id")
		return "", uuid.Nil, false
	}
	return owner, id, true
}

func (h *Handler) sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invoice.ErrNotFound):
		h.sendError(w, http.StatusNotFound, "invoice not found")
	case errors.Is(err, invoice.ErrNotStored):
		h.sendError(w, http.StatusNotFound, "document not stored")
	default:
		h.sendError(w, http.StatusInternalServerError, err.Error())
	}
}
