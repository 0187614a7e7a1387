package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned by Verify for a structurally valid token whose
	// expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrMalformed is returned by Verify when the signature or structure is
	// invalid.
	ErrMalformed = errors.New("token malformed")
	// ErrClaimMismatch is returned by Verify when issuer or audience do not
	// match the configured values.
	ErrClaimMismatch = errors.New("token claim mismatch")
)

// Config is the shared signing configuration. The same instance is used for
// signing and verification; it is immutable after NewCodec.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	// Leeway tolerated when validating time-based claims. Zero disables it.
	Leeway time.Duration
}

// Claims is the decoded payload of a goiam token. Access tokens carry
// Email, Role, and Permissions; refresh tokens carry RefreshTokenID.
type Claims struct {
	Email          string   `json:"email,omitempty"`
	Role           string   `json:"role,omitempty"`
	Permissions    []string `json:"permissions,omitempty"`
	RefreshTokenID string   `json:"refreshTokenId,omitempty"`
	jwt.RegisteredClaims
}

// Extra is the caller-supplied claim set embedded next to the registered
// claims on Sign.
type Extra struct {
	Email          string
	Role           string
	Permissions    []string
	RefreshTokenID string
}

// Codec signs and verifies tokens with a single HS256 secret.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: secret must not be empty")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token: invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Sign produces a signed token for subjectID expiring after ttl, embedding
// the extra claims and the configured issuer and audience.
func (c *Codec) Sign(subjectID string, ttl time.Duration, extra Extra) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token: ttl must be positive")
	}

	now := time.Now()
	claims := Claims{
		Email:          extra.Email,
		Role:           extra.Role,
		Permissions:    extra.Permissions,
		RefreshTokenID: extra.RefreshTokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    c.config.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if c.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
// Failures map onto ErrExpired, ErrClaimMismatch, and ErrMalformed.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	if c.config.Audience != "" {
		options = append(options, jwt.WithAudience(c.config.Audience))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrClaimMismatch
	default:
		return ErrMalformed
	}
}
