package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bosflow/bosflow/internal/observability"
	"github.com/bosflow/bosflow/internal/validation"
	"github.com/bosflow/bosflow/model"
)

// maxBodyBytes caps request body size for document payloads.
const maxBodyBytes = 4 << 20

// ValidationHandler serves the validation endpoints.
type ValidationHandler struct {
	engine  *validation.Engine
	metrics *observability.Metrics
}

// NewValidationHandler creates a ValidationHandler.
func NewValidationHandler(engine *validation.Engine, metrics *observability.Metrics) *ValidationHandler {
	return &ValidationHandler{engine: engine, metrics: metrics}
}

// decodeDocument reads and decodes a JSON document from the request body.
func decodeDocument(w http.ResponseWriter, r *http.Request) (model.Document, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, model.NewBadRequestError("Unable to read request body"))
		return nil, false
	}
	var doc model.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		WriteError(w, model.NewBadRequestError("Request body must be a JSON object"))
		return nil, false
	}
	if doc == nil {
		WriteError(w, model.NewBadRequestError("Request body must be a JSON object"))
		return nil, false
	}
	slog.Debug("document received",
		"path", r.URL.Path,
		"body", observability.RedactBody(doc, nil),
	)
	return doc, true
}

// Validate handles POST /api/v1/validate. Returns the full validation
// summary for the submitted document.
func (h *ValidationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	doc, ok := decodeDocument(w, r)
	if !ok {
		return
	}

	start := time.Now()
	summary := h.engine.ValidateDocument(doc)
	if h.metrics != nil {
		h.metrics.RecordValidation("full", summary.Grade, summary.OverallScore, time.Since(start))
	}

	WriteJSON(w, http.StatusOK, summary)
}

// QuickValidate handles POST /api/v1/validate/quick. Returns the condensed
// pass/fail view.
func (h *ValidationHandler) QuickValidate(w http.ResponseWriter, r *http.Request) {
	doc, ok := decodeDocument(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result := h.engine.QuickValidate(doc)
	if h.metrics != nil {
		grade := "pass"
		if !result.Valid {
			grade = "fail"
		}
		h.metrics.RecordValidation("quick", grade, result.Score, time.Since(start))
	}

	WriteJSON(w, http.StatusOK, result)
}

// ValidateCategory handles POST /api/v1/validate/category/{category}.
// Reports completeness for one rule category.
func (h *ValidationHandler) ValidateCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if category == "" {
		WriteError(w, model.NewBadRequestError("Category is required"))
		return
	}

	doc, ok := decodeDocument(w, r)
	if !ok {
		return
	}

	_, span := observability.StartSpan(r.Context(), "validation.category",
		observability.AttrCategory.String(category))
	result := h.engine.ValidateBOSStep(doc, category)
	span.End()

	WriteJSON(w, http.StatusOK, result)
}

// Report handles POST /api/v1/validate/report. Returns the human-readable
// plain text validation report.
func (h *ValidationHandler) Report(w http.ResponseWriter, r *http.Request) {
	doc, ok := decodeDocument(w, r)
	if !ok {
		return
	}

	report := h.engine.GenerateReport(doc)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
}

// Requirements handles GET /api/v1/requirements/{category}. Returns the
// rule set registered for the category.
func (h *ValidationHandler) Requirements(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	rules := h.engine.FieldRequirements(category)
	if len(rules) == 0 {
		WriteNotFound(w, "No rules registered for category "+category)
		return
	}
	WriteJSON(w, http.StatusOK, rules)
}
