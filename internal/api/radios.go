package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ztrcek/hisnik/internal/model"
	"github.com/ztrcek/hisnik/internal/store"
)

// RadiosHandler handles radio assignment endpoints.
type RadiosHandler struct {
	DB *sql.DB
}

type createRadioRequest struct {
	Callsign     string `json:"callsign"`
	RadioNumber  string `json:"radio_number"`
	SerialNumber string `json:"serial_number"`
}

type signOutRequest struct {
	PersonName  string   `json:"person_name"`
	Accessories []string `json:"accessories"`
}

type replacementPartsRequest struct {
	Parts []string `json:"parts"`
}

// List handles GET /api/radios.
func (h *RadiosHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != model.RadioAvailable && status != model.RadioAssigned {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	radios, err := store.ListRadios(r.Context(), h.DB, status)
	if err != nil {
		slog.Error("failed to list radios", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list radios")
		return
	}
	if radios == nil {
		radios = []model.Radio{}
	}
	jsonResponse(w, http.StatusOK, radios)
}

// Create handles POST /api/radios.
func (h *RadiosHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRadioRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	radio, err := store.CreateRadio(r.Context(), h.DB, req.Callsign, req.RadioNumber, req.SerialNumber)
	if err != nil {
		domainError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, radio)
}

// Get handles GET /api/radios/{id}.
func (h *RadiosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid radio id")
		return
	}

	radio, err := store.GetRadio(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get radio")
		return
	}
	if radio == nil {
		jsonError(w, http.StatusNotFound, "radio not found")
		return
	}

	history, err := store.ListAssignments(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get radio history")
		return
	}
	if history == nil {
		history = []model.RadioAssignment{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"radio":   radio,
		"history": history,
	})
}

// Delete handles DELETE /api/radios/{id}.
func (h *RadiosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid radio id")
		return
	}

	if err := store.DeleteRadio(r.Context(), h.DB, id); err != nil {
		domainError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "radio deleted"})
}

// SignOut handles POST /api/radios/{id}/signout.
func (h *RadiosHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid radio id")
		return
	}

	var req signOutRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assignment, err := store.SignOutRadio(r.Context(), h.DB, id, req.PersonName, req.Accessories)
	if err != nil {
		domainError(w, err)
		return
	}

	slog.Info("radio signed out", "radio", assignment.Callsign,
		"person", assignment.PersonName, "by", actingUser(r.Context()))
	jsonResponse(w, http.StatusCreated, assignment)
}

// SignIn handles POST /api/radios/{id}/signin.
func (h *RadiosHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid radio id")
		return
	}

	radio, err := store.SignInRadio(r.Context(), h.DB, id)
	if err != nil {
		domainError(w, err)
		return
	}

	slog.Info("radio signed in", "radio", radio.Callsign, "by", actingUser(r.Context()))
	jsonResponse(w, http.StatusOK, radio)
}

// ListAssignments handles GET /api/radios/assignments.
func (h *RadiosHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	var radioID int64
	if v := r.URL.Query().Get("radio_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid radio_id")
			return
		}
		radioID = id
	}

	assignments, err := store.ListAssignments(r.Context(), h.DB, radioID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.RadioAssignment{}
	}
	jsonResponse(w, http.StatusOK, assignments)
}

// AddParts handles POST /api/radios/assignments/{id}/parts.
func (h *RadiosHandler) AddParts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	var req replacementPartsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.AddReplacementParts(r.Context(), h.DB, id, req.Parts); err != nil {
		domainError(w, err)
		return
	}

	assignment, err := store.GetAssignment(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}
	jsonResponse(w, http.StatusOK, assignment)
}
