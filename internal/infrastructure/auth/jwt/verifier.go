package jwt

import (
	"os"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	Subject   string    `json:"sub"`
	Roles     []string  `json:"roles,omitempty"`
	ExpiresAt time.Time `json:"exp"`
	IssuedAt  time.Time `json:"iat"`
}

// HasRole reports whether the token grants role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type tokenClaims struct {
	Roles []string `json:"roles,omitempty"`
	gojwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New(errors.ErrCodeUnauthorized, "invalid token")
	ErrTokenExpired = errors.New(errors.ErrCodeUnauthorized, "token expired")
)

// Verifier validates HS256 or RS256 bearer tokens.
type Verifier struct {
	method   gojwt.SigningMethod
	key      interface{}
	issuer   string
	audience string
	leeway   time.Duration
}

// NewVerifier builds a Verifier from cfg. RS256 reads the PEM public key
// from cfg.PublicKeyPath.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	v := &Verifier{issuer: cfg.Issuer, audience: cfg.Audience, leeway: 30 * time.Second}

	switch strings.ToUpper(cfg.Algorithm) {
	case "", "HS256":
		if cfg.Secret == "" {
			return nil, errors.New(errors.ErrCodeValidation, "auth secret is required for HS256")
		}
		v.method, v.key = gojwt.SigningMethodHS256, []byte(cfg.Secret)
	case "RS256":
		if cfg.PublicKeyPath == "" {
			return nil, errors.New(errors.ErrCodeValidation, "auth public_key_path is required for RS256")
		}
		pem, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read public key")
		}
		pub, err := gojwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to parse public key")
		}
		v.method, v.key = gojwt.SigningMethodRS256, pub
	default:
		return nil, errors.New(errors.ErrCodeValidation, "unsupported auth algorithm").WithDetail(cfg.Algorithm)
	}
	return v, nil
}

// ValidateToken parses raw, checks signature, expiry, issuer and audience.
func (v *Verifier) ValidateToken(raw string) (*Claims, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{v.method.Alg()}),
		gojwt.WithLeeway(v.leeway),
		gojwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, gojwt.WithAudience(v.audience))
	}

	var tc tokenClaims
	_, err := gojwt.ParseWithClaims(raw, &tc, func(*gojwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid.WithCause(err)
	}

	claims := &Claims{Subject: tc.Subject, Roles: tc.Roles}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	return claims, nil
}

// Sign issues an HS256 token. It is used by the CLI and tests.
func Sign(secret, subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := gojwt.NewWithClaims(gojwt.SigningMethodHS256, tokenClaims{
		Roles: roles,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to sign token")
	}
	return s, nil
}

//Personal.AI order the ending
