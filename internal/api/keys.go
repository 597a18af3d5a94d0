package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ztrcek/hisnik/internal/model"
	"github.com/ztrcek/hisnik/internal/store"
)

// KeysHandler handles the key custody ledger endpoints.
type KeysHandler struct {
	DB *sql.DB
}

type createKeyRequest struct {
	Name          string        `json:"name"`
	Restricted    bool          `json:"restricted"`
	CurrentHolder *model.Holder `json:"current_holder,omitempty"`
}

type registerStockRequest struct {
	KeyName  string `json:"key_name"`
	Lockbox  string `json:"lockbox"`
	Quantity int    `json:"quantity"`
}

type transferRequest struct {
	KeyName  string `json:"key_name"`
	Action   string `json:"action"`
	Person   string `json:"person"`
	Lockbox  string `json:"lockbox"`
	Quantity int    `json:"quantity"`
}

// List handles GET /api/keys.
func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := store.ListKeys(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list keys", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list keys")
		return
	}
	if keys == nil {
		keys = []model.Key{}
	}
	jsonResponse(w, http.StatusOK, keys)
}

// Create handles POST /api/keys.
func (h *KeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key, err := store.CreateKey(r.Context(), h.DB, req.Name, req.Restricted, req.CurrentHolder)
	if err != nil {
		domainError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, key)
}

// Get handles GET /api/keys/{id}.
func (h *KeysHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	key, err := store.GetKey(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get key")
		return
	}
	if key == nil {
		jsonError(w, http.StatusNotFound, "key not found")
		return
	}
	jsonResponse(w, http.StatusOK, key)
}

// Delete handles DELETE /api/keys/{id}.
func (h *KeysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	if err := store.DeleteKey(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete key")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "key deleted"})
}

// RegisterStock handles POST /api/keys/stock.
func (h *KeysHandler) RegisterStock(w http.ResponseWriter, r *http.Request) {
	var req registerStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key, err := store.RegisterKeyStock(r.Context(), h.DB, req.KeyName, req.Lockbox, req.Quantity)
	if err != nil {
		domainError(w, err)
		return
	}

	slog.Info("key stock registered", "key", key.Name, "lockbox", req.Lockbox,
		"quantity", req.Quantity, "by", actingUser(r.Context()))
	jsonResponse(w, http.StatusCreated, key)
}

// Transfer handles POST /api/keys/transfer.
func (h *KeysHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key, err := store.TransferKeyCustody(r.Context(), h.DB,
		req.KeyName, req.Action, req.Person, req.Lockbox, req.Quantity, actingUser(r.Context()))
	if err != nil {
		domainError(w, err)
		return
	}

	slog.Info("key custody transferred", "key", key.Name, "action", req.Action,
		"person", req.Person, "lockbox", req.Lockbox, "quantity", req.Quantity,
		"by", actingUser(r.Context()))
	jsonResponse(w, http.StatusOK, key)
}

// Consolidate handles POST /api/keys/consolidate.
func (h *KeysHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	merged, err := store.ConsolidateLegacyKeys(r.Context(), h.DB)
	if err != nil {
		slog.Error("key consolidation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "consolidation failed")
		return
	}

	slog.Info("legacy keys consolidated", "merged", merged, "by", actingUser(r.Context()))
	jsonResponse(w, http.StatusOK, map[string]int{"merged": merged})
}

// Logs handles GET /api/keys/logs.
func (h *KeysHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	logs, err := store.ListKeyLogs(r.Context(), h.DB, r.URL.Query().Get("key"), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list key logs")
		return
	}
	if logs == nil {
		logs = []model.KeyLogEntry{}
	}
	jsonResponse(w, http.StatusOK, logs)
}

// Search handles GET /api/keys/search?q=.
func (h *KeysHandler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := store.SearchCustody(r.Context(), h.DB, r.URL.Query().Get("q"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "search failed")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}
