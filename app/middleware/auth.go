package appMiddleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-korea-tour-explorer/config"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api"
)

type contextKey string

const identityKey contextKey = "identity"

var (
	ErrNoVerificationKey = errors.New("no token verification key configured")
	ErrMissingSubject    = errors.New("token has no subject")
	ErrAudienceMismatch  = errors.New("token audience mismatch")
)

// Identity is the verified caller as issued by the external identity provider.
// ExternalID is the token subject; the bookmark store scopes row-level security to it.
type Identity struct {
	ExternalID string
	Email      string
}

// Claims are the identity provider claims this service reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against the configured HMAC secret or RSA public key.
type Verifier struct {
	hmacKey  []byte
	rsaKey   *rsa.PublicKey
	issuer   string
	audience string
}

func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	v := &Verifier{
		hmacKey:  []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
	if pem := strings.TrimSpace(cfg.PublicKeyPEM); pem != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("failed to parse auth public key: %w", err)
		}
		v.rsaKey = key
	}
	return v, nil
}

// Enabled reports whether any verification key is configured.
func (v *Verifier) Enabled() bool {
	return v.rsaKey != nil || len(v.hmacKey) > 0
}

// Verify parses and validates tokenString and returns the caller identity.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	if !v.Enabled() {
		return nil, ErrNoVerificationKey
	}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if !api.VerifyAudience(claims.Audience, v.audience) {
		return nil, ErrAudienceMismatch
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return &Identity{ExternalID: claims.Subject, Email: claims.Email}, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA:
		if v.rsaKey == nil {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.rsaKey, nil
	case *jwt.SigningMethodHMAC:
		if len(v.hmacKey) == 0 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.hmacKey, nil
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by OptionalAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.ExternalID == "" {
		return Identity{}, false
	}
	return id, true
}
