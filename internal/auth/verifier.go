package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAlgorithms is the signing algorithm allow-list used when none is configured.
var DefaultAlgorithms = []string{"RS256"}

// Identity is a verified bearer.
type Identity struct {
	Subject string
	Claims  jwt.MapClaims
}

// VerifierConfig holds the named inputs of token verification.
type VerifierConfig struct {
	Issuer     string        // Expected "iss", e.g. https://tenant.example.com/
	Audience   string        // Expected "aud", the OAuth client ID
	Algorithms []string      // Allow-listed asymmetric algorithms
	Leeway     time.Duration // Clock skew tolerance for exp/nbf/iat
}

// Verifier checks externally issued ID tokens against the issuer's key set.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	keys       KeySet
	issuer     string
	audience   string
	algorithms []string
	leeway     time.Duration
}

// NewVerifier creates a verifier. Symmetric algorithms are removed from the
// allow-list since the issuer's public key set can never verify them.
func NewVerifier(keys KeySet, cfg VerifierConfig) *Verifier {
	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = DefaultAlgorithms
	}
	algs = slices.DeleteFunc(slices.Clone(algs), isSymmetric)

	return &Verifier{
		keys:       keys,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		algorithms: algs,
		leeway:     cfg.Leeway,
	}
}

// Verify validates an Authorization header value of the form "Bearer <token>".
// Every error it returns is a *Failure.
func (v *Verifier) Verify(ctx context.Context, header string) (*Identity, error) {
	if header == "" {
		return nil, fail(KindMissingHeader, nil)
	}

	scheme, raw, ok := strings.Cut(header, " ")
	raw = strings.TrimSpace(raw)
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" || strings.Contains(raw, " ") {
		return nil, fail(KindMalformedHeader, nil)
	}

	return v.VerifyToken(ctx, raw)
}

// VerifyToken validates a raw compact JWT.
func (v *Verifier) VerifyToken(ctx context.Context, raw string) (*Identity, error) {
	// The unverified header names the key and algorithm.
	unverified, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		// Well-formed, but signed with an algorithm the jwt library does not know.
		return nil, fail(KindUnsupportedAlgorithm, err)
	}
	if err != nil {
		return nil, fail(KindUnparseable, err)
	}

	alg, _ := unverified.Header["alg"].(string)
	if isSymmetric(alg) || !slices.Contains(v.algorithms, alg) {
		return nil, fail(KindUnsupportedAlgorithm, fmt.Errorf("algorithm %q not allowed", alg))
	}
	kid, _ := unverified.Header["kid"].(string)

	keys, err := v.keys.Fetch(ctx)
	if err != nil {
		return nil, fail(KindKeySetUnavailable, err)
	}

	var key any
	for _, candidate := range keys.Key(kid) {
		if pub := candidate.Public(); pub.Valid() {
			key = pub.Key
			break
		}
	}
	if key == nil {
		return nil, fail(KindNoMatchingKey, fmt.Errorf("no key with kid %q", kid))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(v.algorithms),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}); err != nil {
		return nil, classify(err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fail(KindBadClaims, errors.New("missing subject"))
	}

	return &Identity{Subject: sub, Claims: claims}, nil
}

// classify maps a jwt parse error onto a failure kind.
// Expiry is checked before the generic claims error it is joined with.
func classify(err error) *Failure {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fail(KindUnparseable, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fail(KindBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fail(KindExpired, err)
	default:
		return fail(KindBadClaims, err)
	}
}

func isSymmetric(alg string) bool {
	return strings.HasPrefix(strings.ToUpper(alg), "HS") || strings.EqualFold(alg, "none")
}
