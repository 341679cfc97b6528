package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"farmacia/m/internal/medications"
	"farmacia/m/internal/store"
)

type medicationRequest struct {
	GenericName          string           `json:"generic_name" validate:"max=200"`
	Presentation         string           `json:"presentation" validate:"max=100"`
	Dose                 string           `json:"dose" validate:"max=100"`
	Route                string           `json:"route" validate:"max=100"`
	LabCode              string           `json:"lab_code" validate:"max=100"`
	SanitaryRegistration string           `json:"sanitary_registration" validate:"max=100"`
	Contraindications    string           `json:"contraindications"`
	Precautions          string           `json:"precautions"`
	RequiresPrescription bool             `json:"requires_prescription"`
	Quantity             *int64           `json:"quantity" validate:"omitempty,min=0"`
	MinStock             *int64           `json:"min_stock" validate:"omitempty,min=0"`
	UnitPrice            *decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"`
	Active               *bool            `json:"active"`
	ExpiryDate           string           `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

func (req medicationRequest) input() medications.Input {
	return medications.Input{
		GenericName:          req.GenericName,
		Presentation:         req.Presentation,
		Dose:                 req.Dose,
		Route:                req.Route,
		LabCode:              req.LabCode,
		SanitaryRegistration: req.SanitaryRegistration,
		Contraindications:    req.Contraindications,
		Precautions:          req.Precautions,
		RequiresPrescription: req.RequiresPrescription,
		Quantity:             req.Quantity,
		MinStock:             req.MinStock,
		UnitPrice:            req.UnitPrice,
		Active:               req.Active,
		ExpiryDate:           req.ExpiryDate,
	}
}

func (h *Handler) createMedication(w http.ResponseWriter, r *http.Request) {
	var req medicationRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	med, err := h.medications.Create(r.Context(), req.input())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, med)
}

func (h *Handler) listMedications(w http.ResponseWriter, r *http.Request) {
	var filter store.MedicationFilter
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		filter.Active = &active
	}
	filter.Search = r.URL.Query().Get("search")

	result, err := h.medications.List(r.Context(), filter)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) getMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}
	detail, err := h.medications.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *Handler) updateMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}
	var req medicationRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	med, err := h.medications.Update(r.Context(), id, req.input())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, med)
}

func (h *Handler) deleteMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}
	if err := h.medications.Delete(r.Context(), id); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) toggleMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}
	med, err := h.medications.ToggleActive(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, med)
}

func (h *Handler) medicationMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}
	movements, err := h.medications.Movements(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, movements)
}
