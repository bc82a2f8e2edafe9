package transport

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bosflow/bosflow/internal/config"
	"github.com/bosflow/bosflow/model"
)

const bearerPrefix = "Bearer "

// jwk is the subset of RFC 7517 fields needed to rebuild RSA and EC
// public keys.
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	N   string `json:"n"`
	E   string `json:"e"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// JWKSClient caches the identity provider's signing keys, keyed by kid.
// A stale cache is served when the provider is unreachable.
type JWKSClient struct {
	url        string
	ttl        time.Duration
	minRefresh time.Duration
	httpClient *http.Client

	mu        sync.RWMutex
	byKID     map[string]crypto.PublicKey
	fetchedAt time.Time
}

// NewJWKSClient returns a client for the given JWKS endpoint. Keys are
// cached for ttl; refetches are rate limited to one per five minutes.
func NewJWKSClient(url string, ttl time.Duration) *JWKSClient {
	return &JWKSClient{
		url:        url,
		ttl:        ttl,
		minRefresh: 5 * time.Minute,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		byKID:      make(map[string]crypto.PublicKey),
	}
}

// GetKey returns the public key for kid, fetching the key set when the
// cache misses or has aged past the TTL.
func (c *JWKSClient) GetKey(kid string) (crypto.PublicKey, error) {
	if key, ok := c.cached(kid); ok {
		return key, nil
	}

	if err := c.fetch(); err != nil {
		// Provider unreachable; a stale key beats an outage.
		c.mu.RLock()
		key, ok := c.byKID[kid]
		c.mu.RUnlock()
		if ok {
			slog.Warn("jwks refresh failed, serving stale key", "error", err)
			return key, nil
		}
		return nil, fmt.Errorf("jwks fetch: %w", err)
	}

	c.mu.RLock()
	key, ok := c.byKID[kid]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("jwks: no key with kid %q", kid)
	}
	return key, nil
}

func (c *JWKSClient) cached(kid string) (crypto.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if time.Since(c.fetchedAt) > c.ttl {
		return nil, false
	}
	key, ok := c.byKID[kid]
	return key, ok
}

func (c *JWKSClient) fetch() error {
	c.mu.RLock()
	throttled := len(c.byKID) > 0 && time.Since(c.fetchedAt) < c.minRefresh
	c.mu.RUnlock()
	if throttled {
		return nil
	}

	resp, err := c.httpClient.Get(c.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	byKID := make(map[string]crypto.PublicKey, len(payload.Keys))
	for _, k := range payload.Keys {
		if k.Kid == "" {
			continue
		}
		key, err := k.publicKey()
		if err != nil {
			slog.Warn("skipping unusable jwk", "kid", k.Kid, "error", err)
			continue
		}
		byKID[k.Kid] = key
	}

	c.mu.Lock()
	c.byKID = byKID
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}

func (k jwk) publicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		return k.rsaKey()
	case "EC":
		return k.ecKey()
	default:
		return nil, fmt.Errorf("unsupported kty %q", k.Kty)
	}
}

func (k jwk) rsaKey() (*rsa.PublicKey, error) {
	if k.N == "" || k.E == "" {
		return nil, errors.New("rsa jwk missing n or e")
	}
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode n: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode e: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

func (k jwk) ecKey() (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	switch k.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported curve %q", k.Crv)
	}
	if k.X == "" || k.Y == "" {
		return nil, errors.New("ec jwk missing x or y")
	}
	x, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("decode x: %w", err)
	}
	y, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("decode y: %w", err)
	}
	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}, nil
}

// JWTAuthenticator verifies bearer tokens against the configured issuer,
// audience, and algorithm allow-list, resolving signing keys through the
// JWKS client. Verified claims land in the request context for the
// downstream context and capability middleware.
func JWTAuthenticator(cfg config.IdentityConfig, jwks *JWKSClient) func(http.Handler) http.Handler {
	keyFor := func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header has no kid")
		}
		return jwks.GetKey(kid)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				WriteError(w, model.NewUnauthorizedError(err.Error()))
				return
			}

			token, err := jwt.Parse(raw, keyFor,
				jwt.WithValidMethods(cfg.Algorithms),
				jwt.WithIssuer(cfg.Issuer),
				jwt.WithAudience(cfg.Audience),
				jwt.WithLeeway(30*time.Second),
				jwt.WithExpirationRequired(),
			)
			if err != nil {
				WriteError(w, model.NewUnauthorizedError(authFailureMessage(err)))
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				WriteError(w, model.NewUnauthorizedError("Invalid token"))
				return
			}

			ctx := WithClaims(r.Context(), map[string]any(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("Missing authorization header")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", errors.New("Invalid authorization header format")
	}
	return header[len(bearerPrefix):], nil
}

// authFailureMessage maps jwt/v5 sentinel errors to the messages the API
// returns. Key-resolution failures surface as unverifiable tokens.
func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "Invalid token issuer"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "Invalid token audience"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "Token missing required claim"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "Invalid token signature"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "Unknown signing key"
	default:
		return "Invalid token"
	}
}
