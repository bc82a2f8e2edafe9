package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bosflow/bosflow/model"
)

func TestValidation_CompleteDocument_GradeA(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(AuthorClaims())

	resp := h.POST("/api/v1/validate", CompleteStepFixture(), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary model.ValidationSummary
	h.ParseJSON(resp, &summary)

	require.Empty(t, summary.CriticalErrors, "complete document should have no critical errors")
	require.GreaterOrEqual(t, summary.OverallScore, 90.0)
	require.Equal(t, "A", summary.Grade)
	require.Len(t, summary.CategoryCompleteness, 5)
}

func TestValidation_EmptyDocument_Fails(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(AuthorClaims())

	resp := h.POST("/api/v1/validate", map[string]any{"version": "1.3.0"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary model.ValidationSummary
	h.ParseJSON(resp, &summary)

	require.NotEmpty(t, summary.CriticalErrors)
	require.Equal(t, "F", summary.Grade)
}

func TestValidation_QuickValidate(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(AuthorClaims())

	t.Run("complete document passes", func(t *testing.T) {
		resp := h.POST("/api/v1/validate/quick", CompleteStepFixture(), token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var quick model.QuickResult
		h.ParseJSON(resp, &quick)
		require.True(t, quick.Valid)
	})

	t.Run("empty document fails", func(t *testing.T) {
		resp := h.POST("/api/v1/validate/quick", map[string]any{"version": "1.3.0"}, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var quick model.QuickResult
		h.ParseJSON(resp, &quick)
		require.False(t, quick.Valid)
		require.NotEmpty(t, quick.Errors)
	})
}

func TestValidation_SingleCategory(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(AuthorClaims())

	resp := h.POST("/api/v1/validate/category/stakeholders", CompleteStepFixture(), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result model.CategoryResult
	h.ParseJSON(resp, &result)
	require.Equal(t, "stakeholders", result.Category)
	require.GreaterOrEqual(t, result.Completeness, 90.0)
}

func TestValidation_Report_IsPlainText(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(AuthorClaims())

	resp := h.POST("/api/v1/validate/report", CompleteStepFixture(), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))

	body := string(h.ReadBody(resp))
	require.Contains(t, body, "Overall Score")
	require.Contains(t, body, "Grade")
}

func TestValidation_Requirements(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(ViewerClaims())

	resp := h.GET("/api/v1/requirements/signals", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rules []model.ValidationRule
	h.ParseJSON(resp, &rules)
	require.NotEmpty(t, rules)
	for _, rule := range rules {
		require.NotEmpty(t, rule.FieldPath)
	}
}

func TestValidation_Requirements_UnknownCategory_404(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(ViewerClaims())

	resp := h.GET("/api/v1/requirements/astrology", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidation_MalformedBody_400(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(AuthorClaims())

	resp := h.POSTWithHeaders("/api/v1/validate", nil, token, map[string]string{
		"Content-Type": "application/json",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
