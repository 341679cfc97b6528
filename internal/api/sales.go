package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"farmacia/m/internal/sales"
)

type saleRequest struct {
	MedicationID int64           `json:"medication_id" validate:"required,gt=0"`
	Quantity     int64           `json:"quantity" validate:"required,gt=0"`
	ClientID     *int64          `json:"client_id" validate:"omitempty,gt=0"`
	EmployeeID   *int64          `json:"employee_id" validate:"omitempty,gt=0"`
	SaleDate     string          `json:"sale_date" validate:"omitempty,datetime=2006-01-02"`
	Discount     decimal.Decimal `json:"discount" validate:"min=0"`
	Tax          decimal.Decimal `json:"tax" validate:"min=0"`
	Status       string          `json:"status" validate:"omitempty,oneof=completed pending in_progress cancelled"`
}

func (req saleRequest) input() sales.Input {
	return sales.Input{
		MedicationID: req.MedicationID,
		Quantity:     req.Quantity,
		ClientID:     req.ClientID,
		EmployeeID:   req.EmployeeID,
		SaleDate:     req.SaleDate,
		Discount:     req.Discount,
		Tax:          req.Tax,
		Status:       req.Status,
	}
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	sale, err := h.sales.Create(r.Context(), req.input())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	var medicationID int64
	if raw := r.URL.Query().Get("medication_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusBadRequest, "invalid medication_id")
			return
		}
		medicationID = id
	}
	list, err := h.sales.List(r.Context(), medicationID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	sale, err := h.sales.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	var req saleRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	sale, err := h.sales.Update(r.Context(), id, req.input())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	if err := h.sales.Delete(r.Context(), id); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
