package token

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the docriver token payload.
type Claims struct {
	Resource    string      `json:"resource"`
	Permissions Permissions `json:"permissions"`
	jwt.RegisteredClaims
}

// Issuer signs docriver tokens locally.
type Issuer struct {
	method   jwt.SigningMethod
	key      any
	issuer   string
	subject  string
	audience string
	resource string
	expires  time.Duration
	now      func() time.Time
}

// NewIssuer loads the signing key named by cfg.
func NewIssuer(cfg *Config) (*Issuer, error) {
	i := &Issuer{
		issuer:   cfg.Issuer,
		subject:  cfg.Subject,
		audience: cfg.Audience,
		resource: cfg.Resource,
		expires:  cfg.ExpiresDuration(),
		now:      time.Now,
	}

	switch strings.ToUpper(cfg.Algorithm) {
	case "RS256":
		pem, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		i.method, i.key = jwt.SigningMethodRS256, key
	case "HS256":
		secret := []byte(cfg.Secret)
		if cfg.KeyFile != "" {
			b, err := os.ReadFile(cfg.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("read key file: %w", err)
			}
			secret = []byte(strings.TrimSpace(string(b)))
		}
		i.method, i.key = jwt.SigningMethodHS256, secret
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", cfg.Algorithm)
	}

	return i, nil
}

// Issue signs a token carrying perms.
func (i *Issuer) Issue(perms Permissions) (string, *Claims, error) {
	now := i.now().UTC()
	claims := &Claims{
		Resource:    i.resource,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   i.subject,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expires)),
		},
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Grant issues a bearer token. A submission without a tx is assigned a new
// one so the token and the request agree on it.
func (i *Issuer) Grant(_ context.Context, perms Permissions) (Grant, error) {
	if perms["tx"] == "" {
		perms["tx"] = uuid.NewString()
	}

	signed, _, err := i.Issue(perms)
	if err != nil {
		return Grant{}, err
	}
	return Grant{Authorization: "Bearer " + signed, Tx: perms["tx"]}, nil
}
