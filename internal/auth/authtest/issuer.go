// Package authtest provides a fake token issuer for tests.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// Defaults for minted tokens.
const (
	KeyID    = "test-key"
	Audience = "test-client"
)

// Issuer serves a JWKS document and mints RS256 tokens signed by its key.
type Issuer struct {
	Server *httptest.Server
	Key    *rsa.PrivateKey

	fetches   atomic.Int64
	available atomic.Bool
}

// NewIssuer starts an issuer that is closed when the test ends.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	iss := &Issuer{Key: key}
	iss.available.Store(true)

	keySet := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     KeyID,
		Algorithm: "RS256",
		Use:       "sig",
	}}}
	body, err := json.Marshal(keySet)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}

	iss.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		iss.fetches.Add(1)
		if !iss.available.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(iss.Server.Close)

	return iss
}

// URL is the expected "iss" claim.
func (i *Issuer) URL() string { return i.Server.URL + "/" }

// JWKSURL is where the key set is served.
func (i *Issuer) JWKSURL() string { return i.Server.URL + "/.well-known/jwks.json" }

// Fetches reports how many times the key set was requested.
func (i *Issuer) Fetches() int64 { return i.fetches.Load() }

// SetAvailable toggles whether the key set endpoint answers.
func (i *Issuer) SetAvailable(ok bool) { i.available.Store(ok) }

// Claims returns a valid claim set for subject.
func (i *Issuer) Claims(subject string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss": i.URL(),
		"aud": Audience,
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

// Sign signs claims with the issuer key under kid.
func (i *Issuer) Sign(t testing.TB, claims jwt.MapClaims, kid string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(i.Key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// Token mints a valid token for subject.
func (i *Issuer) Token(t testing.TB, subject string) string {
	t.Helper()
	return i.Sign(t, i.Claims(subject), KeyID)
}

// Bearer returns an Authorization header value for subject.
func (i *Issuer) Bearer(t testing.TB, subject string) string {
	t.Helper()
	return "Bearer " + i.Token(t, subject)
}
