package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"farmacia/m/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) stockReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.medications.StockReport(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// salesReport totals sales over ?from=&to= (YYYY-MM-DD), defaulting to the current month.
func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	var bounds [2]time.Time
	for i, name := range []string{"from", "to"} {
		raw := strings.TrimSpace(r.URL.Query().Get(name))
		if raw == "" {
			continue
		}
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, name+" must be in YYYY-MM-DD format")
			return
		}
		bounds[i] = day
	}

	rep, err := h.sales.Report(r.Context(), bounds[0], bounds[1])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (h *Handler) stockWorkbook(w http.ResponseWriter, r *http.Request) {
	rep, err := h.medications.StockReport(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	buf := &bytes.Buffer{}
	if err := report.WriteStock(buf, rep); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	fileName := fmt.Sprintf("stock_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
