package jwt

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrDisabled     = errors.New("token validation is disabled")
	ErrInvalidToken = errors.New("invalid token")
)

// Validator checks bearer tokens against a set of x509 certificates. The
// token's kid header selects a certificate by subject common name.
type Validator struct {
	keys     []*x509.Certificate
	iss, aud string
}

// NewValidator loads the PEM certificates at pubPemPaths. With no paths the
// validator is disabled and Enabled reports false.
func NewValidator(pubPemPaths []string, issuer, audience string) (*Validator, error) {
	var certs []*x509.Certificate
	for _, p := range pubPemPaths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		block, _ := pem.Decode(b)
		if block == nil {
			return nil, fmt.Errorf("%s: invalid pem", p)
		}
		c, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		certs = append(certs, c)
	}
	return &Validator{keys: certs, iss: issuer, aud: audience}, nil
}

func (v *Validator) Enabled() bool { return v != nil && len(v.keys) > 0 }

func (v *Validator) Verify(tokenStr string) (jwt.MapClaims, error) {
	if !v.Enabled() {
		return nil, ErrDisabled
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "EdDSA"})}
	if v.iss != "" {
		opts = append(opts, jwt.WithIssuer(v.iss))
	}
	if v.aud != "" {
		opts = append(opts, jwt.WithAudience(v.aud))
	}

	tok, err := jwt.Parse(tokenStr, v.key, opts...)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, _ := tok.Claims.(jwt.MapClaims)
	return claims, nil
}

// key picks the certificate named by kid. Without a kid only a single
// configured certificate is acceptable.
func (v *Validator) key(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		if len(v.keys) == 1 {
			return v.keys[0].PublicKey, nil
		}
		return nil, errors.New("token has no kid")
	}
	for _, c := range v.keys {
		if c.Subject.CommonName == kid {
			return c.PublicKey, nil
		}
	}
	return nil, fmt.Errorf("unknown kid %q", kid)
}
