package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmacia/m/domain"
	"farmacia/m/internal/medications"
	"farmacia/m/internal/sales"
	"farmacia/m/internal/testdb"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := testdb.New(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := New(medications.NewService(db, nil, logger), sales.NewService(db, nil, logger), logger, Options{Metrics: true})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createMedication(t *testing.T, srv *httptest.Server, name string, qty int64) domain.Medication {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/medications", map[string]any{
		"generic_name": name,
		"quantity":     qty,
		"unit_price":   "1.50",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.Medication](t, resp)
}

func onHand(t *testing.T, srv *httptest.Server, id int64) int64 {
	t.Helper()
	resp := do(t, srv, http.MethodGet, fmt.Sprintf("/medications/%d", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[medications.Detail](t, resp).Quantity
}

func TestHealth(t *testing.T) {
	srv := newServer(t)

	resp := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)
	med := createMedication(t, srv, "Paracetamol", 10)

	resp := do(t, srv, http.MethodPost, "/sales", map[string]any{"medication_id": med.ID, "quantity": 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[domain.Sale](t, resp)
	assert.Equal(t, "6", sale.Total.String())
	assert.Equal(t, int64(6), onHand(t, srv, med.ID))

	resp = do(t, srv, http.MethodPut, fmt.Sprintf("/sales/%d", sale.ID), map[string]any{"medication_id": med.ID, "quantity": 6})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(4), onHand(t, srv, med.ID))

	resp = do(t, srv, http.MethodDelete, fmt.Sprintf("/sales/%d", sale.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(10), onHand(t, srv, med.ID))

	resp = do(t, srv, http.MethodGet, fmt.Sprintf("/sales/%d", sale.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, fmt.Sprintf("/medications/%d/movements", med.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.StockMovement](t, resp), 4)
}

func TestUpdateMedicationKeepsOmittedStock(t *testing.T) {
	srv := newServer(t)
	med := createMedication(t, srv, "Paracetamol", 10)

	resp := do(t, srv, http.MethodPut, fmt.Sprintf("/medications/%d", med.ID), map[string]any{"generic_name": "Paracetamol 500"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[domain.Medication](t, resp)
	assert.Equal(t, "Paracetamol 500", updated.GenericName)
	assert.Equal(t, int64(10), updated.Quantity)
	assert.Equal(t, domain.DefaultMinStock, updated.MinStock)
	assert.Equal(t, "1.5", updated.UnitPrice.String())
	assert.Equal(t, int64(10), onHand(t, srv, med.ID))

	resp = do(t, srv, http.MethodGet, fmt.Sprintf("/medications/%d/movements", med.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.StockMovement](t, resp), 1)

	resp = do(t, srv, http.MethodPut, fmt.Sprintf("/medications/%d", med.ID), map[string]any{"generic_name": "Paracetamol 500", "quantity": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), onHand(t, srv, med.ID))

	resp = do(t, srv, http.MethodPut, fmt.Sprintf("/medications/%d", med.ID), map[string]any{"quantity": -1})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Fields, "quantity")
}

func TestSaleStatus(t *testing.T) {
	srv := newServer(t)
	med := createMedication(t, srv, "Ciprofloxacina", 5)

	resp := do(t, srv, http.MethodPost, "/sales", map[string]any{"medication_id": med.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[domain.Sale](t, resp)
	assert.Equal(t, domain.SaleCompleted, sale.Status)

	resp = do(t, srv, http.MethodPut, fmt.Sprintf("/sales/%d", sale.ID), map[string]any{"medication_id": med.ID, "quantity": 1, "status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.SaleInProgress, decode[domain.Sale](t, resp).Status)

	resp = do(t, srv, http.MethodPut, fmt.Sprintf("/sales/%d", sale.ID), map[string]any{"medication_id": med.ID, "quantity": 1, "status": "Anulada"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Fields["status"], "must be one of")
}

func TestInsufficientStockIsAFieldError(t *testing.T) {
	srv := newServer(t)
	med := createMedication(t, srv, "Amoxicilina", 3)

	resp := do(t, srv, http.MethodPost, "/sales", map[string]any{"medication_id": med.ID, "quantity": 5})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decode[errorResponse](t, resp)
	assert.Equal(t, "insufficient stock, available: 3", body.Fields["quantity"])
	assert.Equal(t, int64(3), onHand(t, srv, med.ID))
}

func TestRequestValidation(t *testing.T) {
	srv := newServer(t)

	testCases := []struct {
		name   string
		body   any
		status int
		field  string
	}{
		{name: "missing quantity", body: map[string]any{"medication_id": 1}, status: http.StatusUnprocessableEntity, field: "quantity"},
		{name: "negative discount", body: map[string]any{"medication_id": 1, "quantity": 1, "discount": -1}, status: http.StatusUnprocessableEntity, field: "discount"},
		{name: "bad date", body: map[string]any{"medication_id": 1, "quantity": 1, "sale_date": "15/03/2024"}, status: http.StatusUnprocessableEntity, field: "sale_date"},
		{name: "unknown field", body: map[string]any{"medication_id": 1, "quantity": 1, "price": 2}, status: http.StatusBadRequest},
		{name: "unknown medication", body: map[string]any{"medication_id": 99, "quantity": 1}, status: http.StatusUnprocessableEntity, field: "medication_id"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/sales", tc.body)
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.field != "" {
				assert.Contains(t, decode[errorResponse](t, resp).Fields, tc.field)
			}
		})
	}
}

func TestDeleteMedicationInUse(t *testing.T) {
	srv := newServer(t)
	med := createMedication(t, srv, "Losartan", 5)

	resp := do(t, srv, http.MethodPost, "/sales", map[string]any{"medication_id": med.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, fmt.Sprintf("/medications/%d", med.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestInactiveMedicationCannotBeSold(t *testing.T) {
	srv := newServer(t)
	med := createMedication(t, srv, "Tramadol", 5)

	resp := do(t, srv, http.MethodPost, fmt.Sprintf("/medications/%d/toggle", med.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[domain.Medication](t, resp).Active)

	resp = do(t, srv, http.MethodPost, "/sales", map[string]any{"medication_id": med.ID, "quantity": 1})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "medication is inactive", decode[errorResponse](t, resp).Fields["medication_id"])
}

func TestListMedications(t *testing.T) {
	srv := newServer(t)
	createMedication(t, srv, "Ambroxol", 1)
	createMedication(t, srv, "Bromhexina", 1)

	resp := do(t, srv, http.MethodGet, "/medications?search=amb", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[medications.ListResult](t, resp)
	assert.Equal(t, 1, result.Total)

	resp = do(t, srv, http.MethodGet, "/medications?active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvalidIDs(t *testing.T) {
	srv := newServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/sales/abc", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/medications/0", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/medications/42", nil).StatusCode)
}

func TestStockReports(t *testing.T) {
	srv := newServer(t)
	createMedication(t, srv, "Agotado", 0)
	createMedication(t, srv, "Normal", 50)

	resp := do(t, srv, http.MethodGet, "/reports/stock", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[domain.StockReport](t, resp)
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 1, rep.TotalOutOf)
	assert.Equal(t, "75", rep.InventoryValue.String())

	resp = do(t, srv, http.MethodGet, "/reports/stock.xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
}

func TestSalesReport(t *testing.T) {
	srv := newServer(t)
	med := createMedication(t, srv, "Nistatina", 20)

	for _, body := range []map[string]any{
		{"medication_id": med.ID, "quantity": 2, "sale_date": "2024-05-01"},
		{"medication_id": med.ID, "quantity": 4, "sale_date": "2024-05-03"},
		{"medication_id": med.ID, "quantity": 1, "sale_date": "2024-06-01"},
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/sales", body).StatusCode)
	}

	resp := do(t, srv, http.MethodGet, "/reports/sales?from=2024-05-01&to=2024-05-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[domain.SalesReport](t, resp)
	assert.Equal(t, 2, rep.SalesCount)
	assert.Equal(t, int64(6), rep.Units)
	assert.Equal(t, "9", rep.Revenue.String())
	assert.Len(t, rep.Days, 2)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/reports/sales?from=05/01/2024", nil).StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodGet, "/reports/sales?from=2024-06-01&to=2024-05-01", nil).StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t)
	med := createMedication(t, srv, "Aspirina", 1)
	do(t, srv, http.MethodPost, "/sales", map[string]any{"medication_id": med.ID, "quantity": 1})

	resp := do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "farmacia_sale_operations_total")
}
