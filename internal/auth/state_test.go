package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readinglists-server/internal/auth"
)

func newCodec(t *testing.T, ttl time.Duration) *auth.StateCodec {
	t.Helper()
	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	c, err := auth.NewStateCodec(key, ttl)
	require.NoError(t, err)
	return c
}

func TestStateCodec_RoundTrip(t *testing.T) {
	c := newCodec(t, time.Minute)

	nonce, sealed, err := c.Issue()
	require.NoError(t, err)
	assert.NotContains(t, sealed, nonce)
	assert.NoError(t, c.Check(sealed, nonce))
}

func TestStateCodec_Mismatch(t *testing.T) {
	c := newCodec(t, time.Minute)

	_, sealed, err := c.Issue()
	require.NoError(t, err)
	otherNonce, _, err := c.Issue()
	require.NoError(t, err)

	assert.ErrorIs(t, c.Check(sealed, otherNonce), auth.ErrStateMismatch)
	assert.ErrorIs(t, c.Check("garbage", otherNonce), auth.ErrStateMismatch)
}

func TestStateCodec_Expired(t *testing.T) {
	c := newCodec(t, -time.Second)

	nonce, sealed, err := c.Issue()
	require.NoError(t, err)
	assert.ErrorIs(t, c.Check(sealed, nonce), auth.ErrStateMismatch)
}

func TestStateCodec_OtherKeyRejected(t *testing.T) {
	a := newCodec(t, time.Minute)
	b := newCodec(t, time.Minute)

	nonce, sealed, err := a.Issue()
	require.NoError(t, err)
	assert.ErrorIs(t, b.Check(sealed, nonce), auth.ErrStateMismatch)
}

func TestLoadOrGenerateKey_Persists(t *testing.T) {
	dir := t.TempDir()

	first, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.key"), []byte("abc"), 0o600))

	_, err := auth.LoadOrGenerateKey(dir)
	assert.Error(t, err)
}

func TestOAuthClient_AuthCodeURL(t *testing.T) {
	c := auth.NewOAuthClient(auth.OAuthConfig{
		AuthURL:     "https://issuer.example.com/authorize",
		TokenURL:    "https://issuer.example.com/oauth/token",
		ClientID:    "client",
		RedirectURL: "http://localhost:8080/callback",
	})

	u, err := url.Parse(c.AuthCodeURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "issuer.example.com", u.Host)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, "openid profile", u.Query().Get("scope"))
}

func TestOAuthClient_Exchange(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"token_type":   "Bearer",
			"id_token":     "the-id-token",
		})
	}))
	defer tokenServer.Close()

	c := auth.NewOAuthClient(auth.OAuthConfig{
		AuthURL:  tokenServer.URL + "/authorize",
		TokenURL: tokenServer.URL + "/oauth/token",
		ClientID: "client",
	})

	idToken, err := c.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "the-id-token", idToken)

	_, err = c.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestIssuerEndpoints(t *testing.T) {
	authURL, tokenURL := auth.IssuerEndpoints("tenant.example.com")
	assert.Equal(t, "https://tenant.example.com/authorize", authURL)
	assert.Equal(t, "https://tenant.example.com/oauth/token", tokenURL)
	assert.Equal(t, "https://tenant.example.com/.well-known/jwks.json", auth.JWKSURL("tenant.example.com"))
}
