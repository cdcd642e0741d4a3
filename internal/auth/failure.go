package auth

import (
	"errors"
	"fmt"
)

// Kind classifies why a bearer credential was rejected.
type Kind int

// Failure kinds, in the order the verifier checks for them.
const (
	KindMissingHeader Kind = iota + 1
	KindMalformedHeader
	KindUnparseable
	KindUnsupportedAlgorithm
	KindKeySetUnavailable
	KindNoMatchingKey
	KindBadSignature
	KindExpired
	KindBadClaims
)

var kindNames = map[Kind]string{
	KindMissingHeader:        "missing_header",
	KindMalformedHeader:      "malformed_header",
	KindUnparseable:          "unparseable",
	KindUnsupportedAlgorithm: "unsupported_algorithm",
	KindKeySetUnavailable:    "key_set_unavailable",
	KindNoMatchingKey:        "no_matching_key",
	KindBadSignature:         "bad_signature",
	KindExpired:              "expired",
	KindBadClaims:            "bad_claims",
}

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds returns every failure kind.
func Kinds() []Kind {
	return []Kind{
		KindMissingHeader, KindMalformedHeader, KindUnparseable,
		KindUnsupportedAlgorithm, KindKeySetUnavailable, KindNoMatchingKey,
		KindBadSignature, KindExpired, KindBadClaims,
	}
}

// Failure is the only error Verify returns.
// Its text is for logs; callers must not show it to clients.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("auth %s: %v", f.Kind, f.Err)
	}
	return "auth " + f.Kind.String()
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(kind Kind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// KindOf extracts the failure kind from err.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}
