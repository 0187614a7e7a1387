package guard

import (
	"fmt"
	"net/http"
	"strings"

	goiam "github.com/goiam-dev/goiam"
	"github.com/goiam-dev/goiam/token"
)

// AuthType selects an authentication strategy for a route.
type AuthType string

const (
	// AuthTypeBearer authenticates via a signed access token in the
	// Authorization header.
	AuthTypeBearer AuthType = "bearer"
	// AuthTypeAPIKey authenticates via the X-Api-Key header.
	AuthTypeAPIKey AuthType = "api_key"
	// AuthTypeNone lets the request through without a principal.
	AuthTypeNone AuthType = "none"
)

// DefaultAuthTypes is the chain applied to routes that declare nothing.
var DefaultAuthTypes = []AuthType{AuthTypeBearer}

const apiKeyHeader = "X-Api-Key"

// Chain authenticates requests against an ordered list of strategies.
type Chain struct {
	codec   *token.Codec
	apiKeys goiam.APIKeyStore
}

// NewChain creates a Chain. codec verifies bearer tokens; apiKeys may be
// nil, in which case AuthTypeAPIKey always fails.
func NewChain(codec *token.Codec, apiKeys goiam.APIKeyStore) *Chain {
	return &Chain{codec: codec, apiKeys: apiKeys}
}

// Authenticate tries each declared strategy in order and returns the
// principal from the first one that succeeds. AuthTypeNone succeeds
// immediately with a nil principal. When every strategy fails the error
// of the last one tried is returned; an empty list falls back to
// [DefaultAuthTypes].
//
// Authentication denials match [goiam.ErrUnauthorized] via errors.Is;
// infrastructure failures from the API key store propagate unchanged.
func (c *Chain) Authenticate(r *http.Request, types []AuthType) (*goiam.Principal, error) {
	if len(types) == 0 {
		types = DefaultAuthTypes
	}

	var lastErr error
	for _, authType := range types {
		principal, err := c.authenticateOne(r, authType)
		if err == nil {
			return principal, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = goiam.ErrUnauthorized
	}
	return nil, lastErr
}

func (c *Chain) authenticateOne(r *http.Request, authType AuthType) (*goiam.Principal, error) {
	switch authType {
	case AuthTypeNone:
		return nil, nil
	case AuthTypeBearer:
		return c.bearer(r)
	case AuthTypeAPIKey:
		return c.apiKey(r)
	default:
		return nil, fmt.Errorf("%w: unknown auth type %q", goiam.ErrUnauthorized, authType)
	}
}

func (c *Chain) bearer(r *http.Request) (*goiam.Principal, error) {
	raw, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, fmt.Errorf("%w: missing bearer token", goiam.ErrUnauthorized)
	}

	claims, err := c.codec.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", goiam.ErrUnauthorized, err)
	}
	if claims.RefreshTokenID != "" {
		// a refresh token is not a credential for protected routes
		return nil, fmt.Errorf("%w: refresh token used as access token", goiam.ErrUnauthorized)
	}

	return &goiam.Principal{
		SubjectID:   claims.Subject,
		Email:       claims.Email,
		Role:        goiam.Role(claims.Role),
		Permissions: claims.Permissions,
	}, nil
}

func (c *Chain) apiKey(r *http.Request) (*goiam.Principal, error) {
	if c.apiKeys == nil {
		return nil, fmt.Errorf("%w: api key authentication not configured", goiam.ErrUnauthorized)
	}

	raw := r.Header.Get(apiKeyHeader)
	if raw == "" {
		return nil, fmt.Errorf("%w: missing api key", goiam.ErrUnauthorized)
	}

	principal, err := c.apiKeys.Verify(r.Context(), raw)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, fmt.Errorf("%w: invalid api key", goiam.ErrUnauthorized)
	}
	return principal, nil
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	raw := value[len(bearer):]
	if raw == "" {
		return "", false
	}

	return raw, true
}
