package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bosflow/bosflow/internal/backup"
	"github.com/bosflow/bosflow/model"
)

// BackupHandler serves the backup inventory endpoints.
type BackupHandler struct {
	store backup.Store
}

// NewBackupHandler creates a BackupHandler.
func NewBackupHandler(store backup.Store) *BackupHandler {
	return &BackupHandler{store: store}
}

// List handles GET /api/v1/backups. Returns stored backup records,
// newest first.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if records == nil {
		records = []backup.Record{}
	}
	WriteJSON(w, http.StatusOK, records)
}

// Delete handles DELETE /api/v1/backups/{backupId}.
func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "backupId")
	if id == "" {
		WriteError(w, model.NewBadRequestError("Backup ID is required"))
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
