package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// maxKeySetBytes bounds how much of a JWKS response is read.
const maxKeySetBytes = 1 << 20

// KeySet supplies the issuer's current public signing keys.
type KeySet interface {
	Fetch(ctx context.Context) (*jose.JSONWebKeySet, error)
}

// RemoteKeySet fetches a JWKS document over HTTP on every call.
type RemoteKeySet struct {
	url    string
	client *http.Client
}

// NewRemoteKeySet creates a key set that reads from url.
// A nil client gets a 10 second timeout.
func NewRemoteKeySet(url string, client *http.Client) *RemoteKeySet {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteKeySet{url: url, client: client}
}

// Fetch downloads and decodes the key set.
func (r *RemoteKeySet) Fetch(ctx context.Context) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var keys jose.JSONWebKeySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetBytes)).Decode(&keys); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}
	return &keys, nil
}

// JWKSURL returns the conventional key set location for an issuer domain.
func JWKSURL(domain string) string {
	return "https://" + domain + "/.well-known/jwks.json"
}
