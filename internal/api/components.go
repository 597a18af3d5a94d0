package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/ztrcek/hisnik/internal/model"
	"github.com/ztrcek/hisnik/internal/store"
)

// ComponentsHandler handles component and inspection endpoints.
type ComponentsHandler struct {
	DB *sql.DB
}

type componentRequest struct {
	AssetID   int64  `json:"asset_id"`
	Name      string `json:"name"`
	Frequency string `json:"frequency"`
}

type inspectionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// List handles GET /api/components.
func (h *ComponentsHandler) List(w http.ResponseWriter, r *http.Request) {
	var assetID int64
	if v := r.URL.Query().Get("asset_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid asset_id")
			return
		}
		assetID = id
	}

	components, err := store.ListComponents(r.Context(), h.DB, assetID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list components")
		return
	}
	if components == nil {
		components = []model.Component{}
	}
	jsonResponse(w, http.StatusOK, components)
}

// Create handles POST /api/components.
func (h *ComponentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req componentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	component, err := store.CreateComponent(r.Context(), h.DB, req.AssetID, req.Name, req.Frequency)
	if err != nil {
		domainError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, component)
}

// Get handles GET /api/components/{id}.
func (h *ComponentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid component id")
		return
	}

	component, err := store.GetComponent(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get component")
		return
	}
	if component == nil {
		jsonError(w, http.StatusNotFound, "component not found")
		return
	}
	jsonResponse(w, http.StatusOK, component)
}

// Update handles PUT /api/components/{id}.
func (h *ComponentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid component id")
		return
	}

	var req componentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateComponent(r.Context(), h.DB, id, req.Name, req.Frequency); err != nil {
		domainError(w, err)
		return
	}

	component, _ := store.GetComponent(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, component)
}

// Delete handles DELETE /api/components/{id}.
func (h *ComponentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid component id")
		return
	}

	if err := store.DeleteComponent(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete component")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "component deleted"})
}

// Inspect handles POST /api/components/{id}/inspections.
func (h *ComponentsHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid component id")
		return
	}

	var req inspectionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	component, err := store.RecordInspection(r.Context(), h.DB, id, req.Status, req.Notes, actingUser(r.Context()))
	if err != nil {
		domainError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, component)
}

// Inspections handles GET /api/components/{id}/inspections.
func (h *ComponentsHandler) Inspections(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid component id")
		return
	}

	records, err := store.ListInspections(r.Context(), h.DB, id, 0)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inspections")
		return
	}
	if records == nil {
		records = []model.InspectionRecord{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// DueStatus handles GET /api/components/due.
func (h *ComponentsHandler) DueStatus(w http.ResponseWriter, r *http.Request) {
	status, err := store.ClassifyComponents(r.Context(), h.DB, time.Now().UTC())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to classify components")
		return
	}
	jsonResponse(w, http.StatusOK, status)
}
