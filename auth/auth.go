// Package auth validates bearer tokens for the enhancement endpoints. The
// service only verifies HMAC-signed tokens issued by the surrounding
// platform; it never issues tokens itself.
package auth

import (
	"fmt"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Config configures token verification.
type Config struct {
	// Enabled turns bearer-token enforcement on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	// Secret is the HMAC signing secret shared with the token issuer.
	Secret string `json:"secret" yaml:"secret" mapstructure:"secret"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `json:"issuer" yaml:"issuer" mapstructure:"issuer"`
	// Audience, when set, must appear in the token's aud claim.
	Audience string `json:"audience" yaml:"audience" mapstructure:"audience"`
}

// Validate checks the config for enforcement readiness.
func (c *Config) Validate() error {
	if c.Enabled && c.Secret == "" {
		return fmt.Errorf("auth: secret is required when auth is enabled")
	}
	return nil
}

// Verifier validates bearer tokens.
type Verifier struct {
	cfg Config
}

// NewVerifier creates a Verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{cfg: cfg}, nil
}

// Verify parses and validates a token string, returning its claims.
func (v *Verifier) Verify(token string) (gojwt.MapClaims, error) {
	claims := gojwt.MapClaims{}
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(v.cfg.Audience))
	}

	parsed, err := gojwt.ParseWithClaims(token, claims, v.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("auth: invalid token")
	}
	return claims, nil
}

// ValidatorFunc bridges the Verifier to middleware that only needs a
// token-to-claims function.
func (v *Verifier) ValidatorFunc() func(string) (any, error) {
	return func(token string) (any, error) {
		return v.Verify(token)
	}
}

func (v *Verifier) keyFunc(token *gojwt.Token) (any, error) {
	if token.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("auth: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(v.cfg.Secret), nil
}
