package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"farmacia/m/domain"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

var validate = validator.New()

func init() {
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			return v.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindAndValidate decodes the body into req and runs its validate tags. It writes the error
// response itself and reports whether the handler may continue.
func bindAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := decodeJSON(r, req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = validationMessage(fe)
	}
	respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// respondDomainError maps service errors onto HTTP statuses. Anything unrecognised is logged and
// answered with a generic message.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		insufficient *domain.InsufficientStockError
		fieldErr     *domain.FieldError
	)
	switch {
	case errors.As(err, &insufficient):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  insufficient.Error(),
			Fields: map[string]string{"quantity": insufficient.Error()},
		})
	case errors.As(err, &fieldErr):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  fieldErr.Message,
			Fields: map[string]string{fieldErr.Field: fieldErr.Message},
		})
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrMedicationInUse):
		respondError(w, http.StatusConflict, domain.ErrMedicationInUse.Error())
	case errors.Is(err, domain.ErrStockChanged):
		respondError(w, http.StatusConflict, domain.ErrStockChanged.Error())
	case errors.Is(err, domain.ErrDuplicate):
		respondError(w, http.StatusConflict, "duplicate value")
	default:
		h.logger.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("request failed")
		respondError(w, http.StatusInternalServerError, "the operation could not be completed")
	}
}
