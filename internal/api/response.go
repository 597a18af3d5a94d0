package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ztrcek/hisnik/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// domainError maps store errors onto HTTP statuses: validation errors are
// the client's fault, missing entities are 404, insufficient custody
// quantity is a conflict, anything else is a logged internal error.
func domainError(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	var iqe *model.InsufficientQuantityError

	switch {
	case errors.As(err, &ve):
		jsonError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &iqe):
		jsonError(w, http.StatusConflict, iqe.Error())
	case model.IsNotFound(err):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrRadioAssigned), errors.Is(err, model.ErrRadioAvailable):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
