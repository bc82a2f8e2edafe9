package integration

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// ==========================================================================
// Authentication
// ==========================================================================

func TestSecurity_NoAuthHeader_Returns401(t *testing.T) {
	h := NewTestHarness(t)

	endpoints := []string{
		"/api/v1/requirements/signals",
		"/api/v1/backups",
	}

	for _, ep := range endpoints {
		t.Run(ep, func(t *testing.T) {
			resp := h.GET(ep, "")
			defer resp.Body.Close()
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSecurity_ExpiredJWT_Returns401(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateExpiredToken(AdminClaims())

	resp := h.GET("/api/v1/backups", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSecurity_InvalidSignature_Returns401(t *testing.T) {
	h := NewTestHarness(t)

	// A token signed with a different RSA key (not in JWKS).
	differentKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"iss":   "https://auth.test.bosflow.dev",
		"aud":   "bosflow-api-test",
		"sub":   "user-1",
		"email": "user@acme.com",
		"roles": []any{"admin"},
		"iat":   jwt.NewNumericDate(time.Now()),
		"exp":   jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(differentKey)
	require.NoError(t, err)

	resp := h.GET("/api/v1/backups", signed)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSecurity_WrongAudience_Returns401(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(TestClaims{
		SubjectID: "user-1",
		Roles:     []string{"admin"},
		Extra:     map[string]any{"aud": "some-other-api"},
	})

	resp := h.GET("/api/v1/backups", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSecurity_PublicEndpoints_NoAuthRequired(t *testing.T) {
	h := NewTestHarness(t)

	for _, ep := range []string{"/ui/health", "/ui/ready", "/metrics"} {
		t.Run(ep, func(t *testing.T) {
			resp := h.GET(ep, "")
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

// ==========================================================================
// Authorization
// ==========================================================================

func TestSecurity_ViewerCannotRunValidation(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(ViewerClaims())

	resp := h.POST("/api/v1/validate", CompleteStepFixture(), token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSecurity_ViewerCanReadRequirements(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(ViewerClaims())

	resp := h.GET("/api/v1/requirements/signals", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSecurity_AuthorCannotExecuteEvolution(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(AuthorClaims())

	// Authors may plan...
	planResp := h.POST("/api/v1/evolution/plan", map[string]any{
		"currentVersion": "1.0.0",
		"targetVersion":  "1.3.0",
	}, token)
	defer planResp.Body.Close()
	require.Equal(t, http.StatusOK, planResp.StatusCode)

	// ...but not execute.
	execResp := h.POST("/api/v1/evolution/execute", map[string]any{
		"document":      LegacyFlowFixture(),
		"targetVersion": "1.3.0",
	}, token)
	defer execResp.Body.Close()
	require.Equal(t, http.StatusForbidden, execResp.StatusCode)
}

func TestSecurity_OperatorCanManageBackups(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(OperatorClaims())

	resp := h.GET("/api/v1/backups", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSecurity_UnknownRole_HasNoCapabilities(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(TestClaims{
		SubjectID: "user-nobody",
		Roles:     []string{"intern"},
	})

	resp := h.GET("/api/v1/backups", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// ==========================================================================
// Response hardening
// ==========================================================================

func TestSecurity_ResponseHeaders(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(AdminClaims())

	resp := h.GET("/api/v1/backups", token)
	defer resp.Body.Close()

	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestSecurity_OversizedBody_Rejected(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(AdminClaims())

	// A document with a single field larger than the request body cap.
	big := make([]byte, 5<<20)
	for i := range big {
		big[i] = 'a'
	}
	resp := h.POST("/api/v1/validate", map[string]any{
		"version": "1.3.0",
		"padding": string(big),
	}, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
