// Package integration provides a reusable test harness for end-to-end
// testing of the bosflow server. It starts a full HTTP server with
// in-memory stores and a test JWT issuer.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bosflow/bosflow/internal/backup"
	"github.com/bosflow/bosflow/internal/capability"
	"github.com/bosflow/bosflow/internal/config"
	"github.com/bosflow/bosflow/internal/evolution"
	"github.com/bosflow/bosflow/internal/observability"
	"github.com/bosflow/bosflow/internal/schema"
	"github.com/bosflow/bosflow/internal/transport"
	"github.com/bosflow/bosflow/internal/validation"
)

// TestHarness encapsulates a fully wired bosflow instance for
// integration testing.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server
	issuer *tokenIssuer

	// Internal components exposed for advanced test scenarios.
	Engine      *validation.Engine
	Evolution   *evolution.Service
	BackupStore backup.Store

	cfg *config.Config
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	policyFile     string
	schemaDisabled bool
	handlerTimeout time.Duration
}

// WithPolicyFile sets the static policy YAML file for capability resolution.
func WithPolicyFile(path string) HarnessOption {
	return func(c *harnessConfig) {
		c.policyFile = path
	}
}

// WithoutSchemaGate disables the post-migration structural validator.
func WithoutSchemaGate() HarnessOption {
	return func(c *harnessConfig) {
		c.schemaDisabled = true
	}
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.handlerTimeout = d
	}
}

// NewTestHarness creates and starts a full bosflow test instance. The
// server is automatically cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		handlerTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(hc)
	}

	h := &TestHarness{t: t}

	// Step 1: Validation engine with the built-in rules.
	h.Engine = validation.DefaultEngine()

	// Step 2: Evolution service over in-memory stores.
	registry := evolution.NewRegistry()
	if err := evolution.RegisterCore(registry); err != nil {
		t.Fatalf("register core migrations: %v", err)
	}

	var gate evolution.SchemaGate
	if !hc.schemaDisabled {
		v, err := schema.NewValidator()
		if err != nil {
			t.Fatalf("build schema validator: %v", err)
		}
		gate = v
	}

	h.BackupStore = backup.NewMemoryStore()
	executor := evolution.NewExecutor(h.BackupStore, gate)
	h.Evolution = evolution.NewService(registry, executor, evolution.NewMemoryLocker(), nil, nil)

	// Step 3: Capability resolver.
	var policy *capability.StaticPolicy
	if hc.policyFile != "" {
		p, err := capability.NewStaticPolicy(hc.policyFile)
		if err != nil {
			t.Fatalf("load policy file: %v", err)
		}
		policy = p
	} else {
		policy = capability.NewDefaultPolicy()
	}
	capResolver := capability.NewResolver(policy, 0, nil) // no caching in tests

	// Step 4: JWT issuer.
	h.issuer = newTokenIssuer(t)

	// Step 5: Config.
	h.cfg = config.Defaults()
	h.cfg.Server.HandlerTimeout = hc.handlerTimeout
	h.cfg.Server.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	h.cfg.Identity.Issuer = h.issuer.Issuer()
	h.cfg.Identity.Audience = h.issuer.Audience()
	h.cfg.Identity.JWKSURL = h.issuer.JWKSURL()

	// Step 6: Router with the full middleware chain. Each harness gets
	// its own metrics registry so parallel tests never collide.
	jwks := transport.NewJWKSClient(h.issuer.JWKSURL(), 1*time.Hour)
	metrics := observability.InitMetrics(prometheus.NewRegistry())

	router := transport.NewRouter(transport.Dependencies{
		Config:             h.cfg,
		Authenticate:       transport.JWTAuthenticator(h.cfg.Identity, jwks),
		CapabilityResolver: capResolver,
		Validation:         h.Engine,
		Evolution:          h.Evolution,
		Backups:            h.BackupStore,
		Metrics:            metrics,
		Ready: observability.ReadinessChecks{
			RulesLoaded:  func() bool { return len(h.Engine.Categories()) > 0 },
			SchemaLoaded: func() bool { return true },
		},
	})

	// Step 7: Start test server.
	h.server = httptest.NewServer(router)
	t.Cleanup(func() {
		h.server.Close()
	})

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// GenerateToken creates a valid JWT token with the given claims.
func (h *TestHarness) GenerateToken(claims TestClaims) string {
	return h.issuer.GenerateToken(claims)
}

// GenerateExpiredToken creates a JWT that has already expired.
func (h *TestHarness) GenerateExpiredToken(claims TestClaims) string {
	return h.issuer.GenerateExpiredToken(claims)
}

// --- HTTP client helpers ---

// GET performs an authenticated GET request.
func (h *TestHarness) GET(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("GET", path, nil, token, nil)
}

// POST performs an authenticated POST request with a JSON body.
func (h *TestHarness) POST(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("POST", path, body, token, nil)
}

// POSTWithHeaders performs an authenticated POST request with additional headers.
func (h *TestHarness) POSTWithHeaders(path string, body any, token string, headers map[string]string) *http.Response {
	h.t.Helper()
	return h.doRequest("POST", path, body, token, headers)
}

// DELETE performs an authenticated DELETE request.
func (h *TestHarness) DELETE(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("DELETE", path, nil, token, nil)
}

func (h *TestHarness) doRequest(method, path string, body any, token string, headers map[string]string) *http.Response {
	h.t.Helper()

	url := h.server.URL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// ReadBody reads and returns the response body as bytes.
func (h *TestHarness) ReadBody(resp *http.Response) []byte {
	h.t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	return data
}

// --- Default test claims ---

// ViewerClaims returns TestClaims for a read-only user.
func ViewerClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-viewer",
		Email:     "viewer@acme.example.com",
		Roles:     []string{"viewer"},
	}
}

// AuthorClaims returns TestClaims for a flow author.
func AuthorClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-author",
		Email:     "author@acme.example.com",
		Roles:     []string{"author"},
	}
}

// OperatorClaims returns TestClaims for an operations user.
func OperatorClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-operator",
		Email:     "operator@acme.example.com",
		Roles:     []string{"operator"},
	}
}

// AdminClaims returns TestClaims for an administrator.
func AdminClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-admin",
		Email:     "admin@acme.example.com",
		Roles:     []string{"admin"},
	}
}

// --- Document fixtures ---

// CompleteStepFixture returns a step document that satisfies every
// built-in rule at the latest version.
func CompleteStepFixture() map[string]any {
	return map[string]any{
		"version": "1.3.0",
		"stakeholders": []any{
			map[string]any{"name": "Payments team", "type": "business", "role": "owner"},
		},
		"dependencies": []any{
			map[string]any{
				"expectation": "Settlement completes within 2 hours",
				"stakeholder": "Payments team",
				"measurable":  true,
			},
		},
		"impacts": []any{
			map[string]any{
				"category":    "financial",
				"description": "Revenue is not booked",
				"severity":    4,
			},
		},
		"telemetryMappings": []any{
			map[string]any{
				"observableUnit":    "settlement-queue",
				"telemetryRequired": "queue depth",
				"dataSources":       []any{"kafka"},
			},
		},
		"signals": []any{
			map[string]any{
				"name":      "settlement-lag",
				"type":      "business",
				"threshold": 7200,
				"owner":     "payments-team",
			},
		},
	}
}

// LegacyFlowFixture returns a whole flow file at the oldest supported
// version, with one step still using the pre-rename telemetry field
// and an unowned signal.
func LegacyFlowFixture() map[string]any {
	return map[string]any{
		"version": "1.0.0",
		"flows": []any{
			map[string]any{
				"id":   "flow-settlement",
				"name": "Settlement",
				"stages": []any{
					map[string]any{
						"id":   "stage-capture",
						"name": "Capture",
						"steps": []any{
							map[string]any{
								"id":   "step-settle",
								"name": "Settle payment",
								"stakeholders": []any{
									map[string]any{"name": "Payments team", "type": "business"},
								},
								"telemetry": []any{
									map[string]any{
										"observableUnit":    "settlement-queue",
										"telemetryRequired": "queue depth",
									},
								},
								"signals": []any{
									map[string]any{"name": "settlement-lag", "type": "business"},
								},
							},
						},
					},
				},
			},
		},
	}
}

// firstStep digs the first step map out of a flow file.
func firstStep(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()
	flows, ok := doc["flows"].([]any)
	if !ok || len(flows) == 0 {
		t.Fatalf("document has no flows: %s", FormatJSON(doc))
	}
	stages := flows[0].(map[string]any)["stages"].([]any)
	steps := stages[0].(map[string]any)["steps"].([]any)
	return steps[0].(map[string]any)
}

// FormatJSON converts a value to indented JSON for test output.
func FormatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
