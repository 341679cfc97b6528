package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"farmacia/m/internal/logging"
	"farmacia/m/internal/medications"
	"farmacia/m/internal/sales"
)

// Options tune the router; the zero value serves every origin and hides /metrics.
type Options struct {
	AllowedOrigins []string
	Metrics        bool
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	medications *medications.Service
	sales       *sales.Service
	logger      logrus.FieldLogger
	opts        Options
}

// New constructs a Handler.
func New(meds *medications.Service, sales *sales.Service, logger logrus.FieldLogger, opts Options) *Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Handler{medications: meds, sales: sales, logger: logger, opts: opts}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	if h.opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/medications", func(r chi.Router) {
		r.Post("/", h.createMedication)
		r.Get("/", h.listMedications)
		r.Get("/{id}", h.getMedication)
		r.Put("/{id}", h.updateMedication)
		r.Delete("/{id}", h.deleteMedication)
		r.Post("/{id}/toggle", h.toggleMedication)
		r.Get("/{id}/movements", h.medicationMovements)
	})

	r.Route("/sales", func(r chi.Router) {
		r.Post("/", h.createSale)
		r.Get("/", h.listSales)
		r.Get("/{id}", h.getSale)
		r.Put("/{id}", h.updateSale)
		r.Delete("/{id}", h.deleteSale)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/stock", h.stockReport)
		r.Get("/stock.xlsx", h.stockWorkbook)
		r.Get("/sales", h.salesReport)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
