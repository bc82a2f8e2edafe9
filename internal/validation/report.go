package validation

import (
	"fmt"
	"strings"

	"github.com/bosflow/bosflow/model"
)

// GenerateReport validates the document and renders the summary as
// deterministic plain text. The section headers are a published
// contract — downstream consumers parse them literally — so they must
// not change.
func (e *Engine) GenerateReport(doc model.Document) string {
	summary := e.ValidateDocument(doc)
	return e.RenderReport(summary)
}

// RenderReport renders an already-computed summary. Pure function of
// the summary and the engine's category order; no I/O.
func (e *Engine) RenderReport(summary model.ValidationSummary) string {
	var b strings.Builder

	b.WriteString("# BOS Field Validation Report\n\n")
	fmt.Fprintf(&b, "Overall Score: %.1f%% (Grade %s)\n", summary.OverallScore, summary.Grade)
	fmt.Fprintf(&b, "Fields Valid: %d/%d\n\n", summary.ValidFields, summary.TotalFields)

	b.WriteString("## BOS Methodology Completion\n\n")
	for _, category := range e.Categories() {
		pct, ok := summary.CategoryCompleteness[category]
		if !ok {
			continue
		}
		label := CategoryLabels[category]
		if label == "" {
			label = category
		}
		fmt.Fprintf(&b, "- %s: %.1f%%\n", label, pct)
	}
	b.WriteString("\n")

	writeList(&b, "## Critical Errors", summary.CriticalErrors)
	writeList(&b, "## Warnings", summary.Warnings)
	writeList(&b, "## Suggestions for Improvement", summary.Suggestions)

	b.WriteString("## Detailed Field Validation\n\n")
	for _, field := range summary.Fields {
		marker := "✅"
		if !field.Valid {
			marker = "❌"
		}
		fmt.Fprintf(&b, "### %s %s (score %.0f)\n", marker, field.Field, field.Score)
		for _, msg := range field.Errors {
			fmt.Fprintf(&b, "- error: %s\n", msg)
		}
		for _, msg := range field.Warnings {
			fmt.Fprintf(&b, "- warning: %s\n", msg)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeList(b *strings.Builder, header string, items []string) {
	b.WriteString(header + "\n\n")
	if len(items) == 0 {
		b.WriteString("- none\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
