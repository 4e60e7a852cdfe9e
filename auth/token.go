package auth

import (
	"fmt"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/skillsenselab/streamhub/errors"
)

// Config configures bearer token verification.
type Config struct {
	// Secret is the HMAC signing key shared with the platform's auth service.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// Issuer, when set, must match the token's "iss" claim.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
}

// Validate validates auth configuration.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	return nil
}

// TokenVerifier validates HS256 bearer tokens issued by the platform's
// auth service and extracts the subject as the user id.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier from config.
func NewTokenVerifier(cfg Config) (*TokenVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}, nil
}

// Verify parses and validates the token string and returns the user id.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{"HS256"}),
	}
	if v.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(v.issuer))
	}

	token, err := gojwt.Parse(tokenString, func(t *gojwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", errors.Unauthorized("Invalid authentication token.").WithCause(err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.Unauthorized("Token has no subject.")
	}
	return subject, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):], true
	}
	return "", false
}
