package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/bosflow/bosflow/internal/evolution"
	"github.com/bosflow/bosflow/model"
)

// EvolutionHandler serves the evolution endpoints.
type EvolutionHandler struct {
	service *evolution.Service
}

// NewEvolutionHandler creates an EvolutionHandler.
func NewEvolutionHandler(service *evolution.Service) *EvolutionHandler {
	return &EvolutionHandler{service: service}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, model.NewBadRequestError("Unable to read request body"))
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		WriteError(w, model.NewBadRequestError("Malformed JSON request body"))
		return false
	}
	return true
}

// Compatibility handles POST /api/v1/evolution/compatibility. Runs the
// pre-flight compatibility check without mutating anything.
func (h *EvolutionHandler) Compatibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Document      model.Document `json:"document"`
		TargetVersion string         `json:"targetVersion"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Document == nil {
		WriteError(w, model.NewBadRequestError("Field 'document' is required"))
		return
	}
	if req.TargetVersion == "" {
		WriteError(w, model.NewBadRequestError("Field 'targetVersion' is required"))
		return
	}

	check := h.service.Check(req.Document, req.TargetVersion)
	WriteJSON(w, http.StatusOK, check)
}

// Plan handles POST /api/v1/evolution/plan. Computes the ordered migration
// plan between two versions.
func (h *EvolutionHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentVersion string `json:"currentVersion"`
		TargetVersion  string `json:"targetVersion"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TargetVersion == "" {
		WriteError(w, model.NewBadRequestError("Field 'targetVersion' is required"))
		return
	}

	plan := h.service.Plan(req.CurrentVersion, req.TargetVersion)
	WriteJSON(w, http.StatusOK, plan)
}

// Execute handles POST /api/v1/evolution/execute. Runs the full evolution
// lifecycle: lock, plan, backup, migrate, schema gate.
func (h *EvolutionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID    string         `json:"documentId"`
		Document      model.Document `json:"document"`
		TargetVersion string         `json:"targetVersion"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Document == nil {
		WriteError(w, model.NewBadRequestError("Field 'document' is required"))
		return
	}
	if req.TargetVersion == "" {
		WriteError(w, model.NewBadRequestError("Field 'targetVersion' is required"))
		return
	}

	result := h.service.Evolve(r.Context(), req.DocumentID, req.Document, req.TargetVersion)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, status, result)
}

// Rollback handles POST /api/v1/evolution/rollback. Restores a document
// wholesale from a backup snapshot.
func (h *EvolutionHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BackupID string `json:"backupId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.BackupID == "" {
		WriteError(w, model.NewBadRequestError("Field 'backupId' is required"))
		return
	}

	result := h.service.Rollback(r.Context(), req.BackupID)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, status, result)
}
