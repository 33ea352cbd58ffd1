package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/ddmr2811/Facturas/internal/auth"
	"github.com/ddmr2811/Facturas/internal/db"
	"github.com/ddmr2811/Facturas/internal/invoice"
	"github.com/ddmr2811/Facturas/internal/models"
	"github.com/ddmr2811/Facturas/internal/storage"
)

const (
	MaxUploadSize = 32 * 1024 * 1024 // 32MB per request
	Version       = "1.0.0"
)

// Handler handles HTTP requests for invoice processing
type Handler struct {
	config  *models.Config
	service *invoice.Service
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, service *invoice.Service) *Handler {
	return &Handler{
		config:  config,
		service: service,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")
	router.HandleFunc("/api/me", auth.MeHandler).Methods("GET")

	// Batch processing
	router.HandleFunc("/api/process", h.ProcessInvoices).Methods("POST")
	router.HandleFunc("/api/invoices", h.GetInvoices).Methods("GET")
	router.HandleFunc("/api/invoices", h.ClearInvoices).Methods("DELETE")
	router.HandleFunc("/api/invoices/{id}", h.GetInvoice).Methods("GET")
	router.HandleFunc("/api/invoices/{id}/processed", h.ToggleProcessed).Methods("POST")
	router.HandleFunc("/api/invoices/{id}/memo", h.GetMemo).Methods("GET")
	router.HandleFunc("/api/invoices/{id}/download", h.DownloadInvoice).Methods("GET")
	router.HandleFunc("/api/export.xlsx", h.ExportXLSX).Methods("GET")

	// Reference data
	router.HandleFunc("/api/accounts", h.GetAccounts).Methods("GET")
	router.HandleFunc("/api/tables/reload", h.ReloadTables).Methods("POST")

	// Persisted history
	router.HandleFunc("/api/history", h.GetHistory).Methods("GET")
	router.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Timestamp string        `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Memory    MemoryStats   `json:"memory"`
	Tables    TablesStatus  `json:"tables"`
	Database  ServiceStatus `json:"database"`
	Storage   ServiceStatus `json:"storage"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TablesStatus reports the loaded lookup tables
type TablesStatus struct {
	Identifiers int `json:"identifiers"`
	Addresses   int `json:"addresses"`
}

var startTime = time.Now()

// Health endpoint. Empty lookup tables report "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ids, addrs := h.service.Processor().Tables().Load().Len()

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Tables:   TablesStatus{Identifiers: ids, Addresses: addrs},
		Database: h.checkDatabase(),
		Storage:  h.checkStorage(),
	}

	if ids+addrs == 0 {
		response.Status = "degraded"
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if !db.Available() {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if !storage.Available() {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// owner returns the authenticated username
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, err := auth.GetClaimsFromContext(r.Context())
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return claims.Username, true
}
