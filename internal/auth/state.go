package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/listenupapp/readinglists-server/internal/id"
)

const (
	stateClaim   = "nonce"
	stateSubject = "oauth-state"
)

// ErrStateMismatch is returned when the callback state does not match the cookie.
var ErrStateMismatch = errors.New("oauth state mismatch")

// StateCodec binds an OAuth2 state parameter to the browser that started the
// login. The nonce travels in the query string; an encrypted PASETO holding the
// same nonce travels in a cookie.
type StateCodec struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
}

// NewStateCodec creates a codec from a 32-byte key.
func NewStateCodec(keyBytes []byte, ttl time.Duration) (*StateCodec, error) {
	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &StateCodec{key: key, ttl: ttl}, nil
}

// Issue returns a fresh nonce and the encrypted token to store in the cookie.
func (c *StateCodec) Issue() (nonce, sealed string, err error) {
	nonce, err = id.Generate("state")
	if err != nil {
		return "", "", err
	}

	now := time.Now()
	token := paseto.NewToken()
	token.SetSubject(stateSubject)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(c.ttl))
	token.SetString(stateClaim, nonce)

	return nonce, token.V4Encrypt(c.key, nil), nil
}

// Check decrypts sealed and confirms it carries nonce.
func (c *StateCodec) Check(sealed, nonce string) error {
	parser := paseto.NewParser()
	parser.AddRule(paseto.Subject(stateSubject))

	token, err := parser.ParseV4Local(c.key, sealed, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStateMismatch, err)
	}

	want, err := token.GetString(stateClaim)
	if err != nil || want == "" || want != nonce {
		return ErrStateMismatch
	}
	return nil
}

// TTL is how long an issued state stays valid.
func (c *StateCodec) TTL() time.Duration {
	return c.ttl
}
