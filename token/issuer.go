package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the algorithm used by [Issuer] and [Verifier].
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
)

// Config configures an [Issuer] or [Verifier].
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// SessionClaims is the payload minted for a console session. The identity
// claims mirror what the Auth API returns on login.
type SessionClaims struct {
	Username    string   `json:"username"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints signed session tokens.
type Issuer struct {
	config Config
	now    func() time.Time
}

// NewIssuer validates cfg and returns an [Issuer].
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if err := checkKeys(cfg, true); err != nil {
		return nil, err
	}
	return &Issuer{config: cfg, now: time.Now}, nil
}

// Issue signs a token for subject carrying the given identity claims.
func (i *Issuer) Issue(subject, username string, roles, permissions []string) (string, error) {
	now := i.now()
	claims := SessionClaims{
		Username:    username,
		Roles:       roles,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.config.TTL)),
		},
	}

	signKey, err := signKey(i.config)
	if err != nil {
		return "", err
	}
	return jwt.NewWithClaims(method(i.config.SigningMethod), claims).SignedString(signKey)
}

// Verifier checks token signatures and standard claims.
type Verifier struct {
	config Config
}

// NewVerifier validates cfg and returns a [Verifier]. TTL is ignored.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if err := checkKeys(cfg, false); err != nil {
		return nil, err
	}
	return &Verifier{config: cfg}, nil
}

// Verify parses tokenStr, checking algorithm, signature, expiry and issuer.
func (v *Verifier) Verify(tokenStr string) (*SessionClaims, error) {
	alg := method(v.config.SigningMethod).Alg()
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithExpirationRequired(),
	}
	if v.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(v.config.Leeway))
	}
	if v.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != alg {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return verifyKey(v.config)
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func checkKeys(cfg Config, signing bool) error {
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if signing {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return err
			}
			return nil
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return err
		}
	default:
		return errors.New("unsupported signing method")
	}
	return nil
}

func method(m SigningMethod) jwt.SigningMethod {
	if strings.EqualFold(string(m), string(MethodEd25519)) {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func signKey(cfg Config) (interface{}, error) {
	if cfg.SigningMethod == MethodHS256 {
		return cfg.PrivateKey, nil
	}
	return parseEdPrivateKey(cfg.PrivateKey)
}

func verifyKey(cfg Config) (interface{}, error) {
	if cfg.SigningMethod == MethodHS256 {
		return cfg.PrivateKey, nil
	}
	return parseEdPublicKey(cfg.PublicKey)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
