package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/scrypster/recall/internal/pipeline"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ListRecordsResponse is the response format for GET /api/records.
type ListRecordsResponse struct {
	Records   []types.MemoryRecord `json:"records"`
	Namespace string               `json:"namespace"`
	Count     int                  `json:"count"`
}

// APIHandlers serves the record store and the synchronous processing
// endpoint.
type APIHandlers struct {
	store storage.RecordStore
	orc   *pipeline.Orchestrator
}

// NewAPIHandlers creates the API handler set.
func NewAPIHandlers(store storage.RecordStore, orc *pipeline.Orchestrator) *APIHandlers {
	return &APIHandlers{store: store, orc: orc}
}

// ProcessPayload handles POST /api/process. The payload is run through the
// pipeline synchronously and the run outcome is returned. Malformed payloads
// get 400; store unavailability after retries gets 503.
func (h *APIHandlers) ProcessPayload(w http.ResponseWriter, r *http.Request) {
	var payload types.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	result, err := h.orc.Run(r.Context(), &payload)
	switch {
	case errors.Is(err, pipeline.ErrMalformedPayload):
		respondError(w, http.StatusBadRequest, "malformed payload", err)
		return
	case errors.Is(err, storage.ErrWriteFailed):
		respondError(w, http.StatusServiceUnavailable, "record store unavailable", err)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "processing failed", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetRecord handles GET /api/records/{id}.
func (h *APIHandlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "record ID is required", nil)
		return
	}

	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "record not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get record", err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// ListRecords handles GET /api/records?namespace=/&limit=50.
func (h *APIHandlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	namespace := r.URL.Query().Get("namespace")
	if namespace == "" {
		namespace = "/"
	}
	limit := parseInt(r.URL.Query().Get("limit"), 50)

	list, err := h.store.ListByNamespace(r.Context(), namespace, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list records", err)
		return
	}

	respondJSON(w, http.StatusOK, ListRecordsResponse{
		Records:   list,
		Namespace: namespace,
		Count:     len(list),
	})
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, log but don't try to write another response
		// (headers already sent)
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
