package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldstack/fleetstock/internal/core/domain"
	"github.com/fieldstack/fleetstock/internal/core/service"
	"github.com/fieldstack/fleetstock/internal/port"
)

type HTTPHandler struct {
	catalog   *service.CatalogService
	transfers *service.TransferService
	removals  *service.RemovalService
	alerts    *service.AlertService
	units     port.UnitDirectory
}

func NewHTTPHandler(catalog *service.CatalogService, transfers *service.TransferService, removals *service.RemovalService, alerts *service.AlertService, units port.UnitDirectory) *HTTPHandler {
	return &HTTPHandler{
		catalog:   catalog,
		transfers: transfers,
		removals:  removals,
		alerts:    alerts,
		units:     units,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/items", h.CreateItem)
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("GET /api/items/{id}", h.GetItem)
	mux.HandleFunc("PATCH /api/items/{id}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.DeleteItem)
	mux.HandleFunc("POST /api/transfers", h.Transfer)
	mux.HandleFunc("GET /api/transfers", h.TransferHistory)
	mux.HandleFunc("POST /api/removals", h.Remove)
	mux.HandleFunc("GET /api/alerts", h.Alerts)
	mux.HandleFunc("GET /api/units", h.ListUnits)
	mux.HandleFunc("GET /health", h.HealthCheck)
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var spec service.ItemSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.catalog.AddItem(r.Context(), spec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch service.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.catalog.UpdateItem(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.transfers.Transfer(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *HTTPHandler) TransferHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.transfers.History(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []domain.TransferRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *HTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req domain.RemovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.removals.RemoveFromUnit(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	summary, err := h.alerts.Summary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *HTTPHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.units.ListUnits(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeServiceError maps the engine's error taxonomy onto HTTP statuses.
// Every class except the fallback is recoverable caller error and reported
// verbatim.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validation   *domain.ValidationError
		notFound     *domain.NotFoundError
		conflict     *domain.ConflictError
		insufficient *domain.InsufficientStockError
	)

	switch {
	case errors.Is(err, domain.ErrInvalidTransfer),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflict), errors.Is(err, service.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &insufficient):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
