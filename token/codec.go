package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a token cannot be split, decoded, or parsed.
	ErrMalformed = errors.New("malformed token")
	// ErrMissingExpiry is returned when the payload has no numeric exp claim.
	// It wraps ErrMalformed.
	ErrMissingExpiry = fmt.Errorf("%w: missing exp claim", ErrMalformed)
)

// segmentParser decodes base64url segments, padded or not.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Payload is the decoded payload segment of a session token.
type Payload struct {
	// Exp is the exp claim in seconds since the Unix epoch. Fractional
	// seconds are kept.
	Exp float64
	// Claims holds every payload claim, including exp. Numbers are json.Number.
	Claims jwt.MapClaims
}

// ExpiresAtMillis returns the expiry instant in milliseconds since the epoch.
func (p *Payload) ExpiresAtMillis() float64 {
	return p.Exp * 1000
}

// Subject returns the sub claim, or "" when absent.
func (p *Payload) Subject() string {
	sub, _ := p.Claims.GetSubject()
	return sub
}

// StringClaim returns a string claim by name.
func (p *Payload) StringClaim(name string) (string, bool) {
	v, ok := p.Claims[name].(string)
	return v, ok
}

// DecodePayload splits raw on '.', decodes the payload segment and parses it
// as a JSON object. The signature is not checked.
//
// The segment may use either the URL-safe or the standard base64 alphabet,
// with or without padding. Any failure is reported as [ErrMalformed].
func DecodePayload(raw string) (*Payload, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}
	if parts[1] == "" {
		return nil, fmt.Errorf("%w: empty payload segment", ErrMalformed)
	}

	data, err := segmentParser.DecodeSegment(toURLAlphabet(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims := jwt.MapClaims{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after payload object", ErrMalformed)
	}

	exp, err := expiry(claims)
	if err != nil {
		return nil, err
	}

	return &Payload{Exp: exp, Claims: claims}, nil
}

func expiry(claims jwt.MapClaims) (float64, error) {
	switch v := claims["exp"].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, ErrMissingExpiry
		}
		return f, nil
	case float64:
		return v, nil
	default:
		return 0, ErrMissingExpiry
	}
}

// toURLAlphabet rewrites standard-alphabet characters so tokens produced by
// either base64 flavour decode the same way.
func toURLAlphabet(seg string) string {
	if !strings.ContainsAny(seg, "+/") {
		return seg
	}
	return strings.NewReplacer("+", "-", "/", "_").Replace(seg)
}
