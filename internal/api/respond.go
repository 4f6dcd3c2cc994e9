package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yegors/cctv-repairs/internal/normalizer"
	"github.com/yegors/cctv-repairs/internal/session"
	"github.com/yegors/cctv-repairs/internal/store"
)

// errorResponse is the JSON body for every error status
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Code: code, Message: message})
}

// respondServiceError maps the error taxonomy onto HTTP statuses:
// validation failures are client errors, generation/parse failures are
// upstream failures, a missing record is 404, anything else from the store
// is an internal error.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *store.ValidationError
	var storeErr *store.StoreError
	var generationErr *normalizer.GenerationError
	var parseErr *normalizer.ParseError

	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &validationErr):
		respondError(w, http.StatusUnprocessableEntity, "validation_error", validationErr.Error())
	case errors.As(err, &generationErr):
		respondError(w, http.StatusBadGateway, "generation_error", generationErr.Error())
	case errors.As(err, &parseErr):
		respondError(w, http.StatusBadGateway, "parse_error", parseErr.Error())
	case errors.As(err, &storeErr):
		respondError(w, http.StatusInternalServerError, "store_error", storeErr.Error())
	case errors.Is(err, session.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
