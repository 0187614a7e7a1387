package goiam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goiam-dev/goiam/audit"
	"github.com/goiam-dev/goiam/refresh"
	"github.com/goiam-dev/goiam/token"
)

// Service is the authentication core. It owns credential verification,
// token-pair issuance, and refresh-token rotation; build one with [New].
type Service struct {
	users      UserStore
	hasher     Hasher
	codec      *token.Codec
	registry   *refresh.Registry
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
	audit      *audit.Dispatcher
	validate   *validator.Validate
}

// Codec exposes the token codec so guard chains can verify access tokens
// with the same configuration used to issue them.
func (s *Service) Codec() *token.Codec {
	return s.codec
}

// Registry exposes the refresh-token registry, mainly for tests and for
// administrative invalidation tooling.
func (s *Service) Registry() *refresh.Registry {
	return s.registry
}

// Close flushes the audit dispatcher. The Service must not be used after
// Close.
func (s *Service) Close() {
	s.audit.Close()
}

// SignUp creates a new account with the default role and no permissions.
// A store-level unique violation surfaces as [ErrDuplicateEmail].
func (s *Service) SignUp(ctx context.Context, email, password string) (*User, error) {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidCredentials)
	}
	if err := s.validate.Var(password, "required,min=8"); err != nil {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidCredentials)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Save(ctx, &User{
		Email:        email,
		PasswordHash: digest,
		Role:         RoleRegular,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user signed up")
	s.audit.Emit(ctx, audit.Event{
		Timestamp: time.Now(),
		EventType: audit.EventSignUp,
		SubjectID: user.ID,
		Email:     user.Email,
		Success:   true,
	})
	return user, nil
}

// SignIn verifies the credentials and issues a fresh token pair. Both an
// unknown email and a wrong password collapse to [ErrInvalidCredentials];
// the two cases are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.auditSignInFailure(ctx, email, "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := s.hasher.Compare(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		s.log.Warn().Str("user_id", user.ID).Msg("sign-in with wrong password")
		s.auditSignInFailure(ctx, email, "wrong password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.GenerateTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, audit.Event{
		Timestamp: time.Now(),
		EventType: audit.EventSignInSuccess,
		SubjectID: user.ID,
		Email:     user.Email,
		Success:   true,
	})
	return pair, nil
}

func (s *Service) auditSignInFailure(ctx context.Context, email, reason string) {
	s.audit.Emit(ctx, audit.Event{
		Timestamp: time.Now(),
		EventType: audit.EventSignInFailure,
		Email:     email,
		Error:     reason,
	})
}

// GenerateTokens issues a new access/refresh pair for user and registers
// the refresh-token id, superseding any previously issued refresh token.
// The registry write happens after both tokens are signed and before the
// pair is returned, so a returned pair is always redeemable.
func (s *Service) GenerateTokens(ctx context.Context, user *User) (*TokenPair, error) {
	refreshTokenID := uuid.NewString()

	var (
		wg                    sync.WaitGroup
		accessToken           string
		refreshToken          string
		accessErr, refreshErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		accessToken, accessErr = s.codec.Sign(user.ID, s.accessTTL, token.Extra{
			Email:       user.Email,
			Role:        string(user.Role),
			Permissions: user.Permissions,
		})
	}()
	go func() {
		defer wg.Done()
		refreshToken, refreshErr = s.codec.Sign(user.ID, s.refreshTTL, token.Extra{
			RefreshTokenID: refreshTokenID,
		})
	}()
	wg.Wait()

	if accessErr != nil {
		return nil, fmt.Errorf("sign access token: %w", accessErr)
	}
	if refreshErr != nil {
		return nil, fmt.Errorf("sign refresh token: %w", refreshErr)
	}

	if err := s.registry.Insert(ctx, user.ID, refreshTokenID, s.refreshTTL); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, audit.Event{
		Timestamp: time.Now(),
		EventType: audit.EventTokensIssued,
		SubjectID: user.ID,
		Email:     user.Email,
		Success:   true,
	})
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RefreshTokens redeems a refresh token for a new pair. The presented token
// is consumed atomically: of N concurrent calls with the same token exactly
// one succeeds.
//
// A syntactically invalid, expired, or unresolvable token fails with
// [ErrInvalidRefreshToken]. A structurally valid token whose id does not
// match the registered record, or whose record was already consumed, is
// treated as evidence of theft and fails with [ErrAccessDenied].
// Infrastructure failures propagate unchanged.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if claims.RefreshTokenID == "" {
		// an access token presented on the refresh path
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if err := s.registry.Redeem(ctx, user.ID, claims.RefreshTokenID); err != nil {
		if errors.Is(err, refresh.ErrReuseDetected) {
			s.log.Warn().Str("user_id", user.ID).Msg("refresh token reuse detected")
			s.audit.Emit(ctx, audit.Event{
				Timestamp: time.Now(),
				EventType: audit.EventReuseDetected,
				SubjectID: user.ID,
				Email:     user.Email,
				Error:     "refresh token reuse detected",
			})
			return nil, ErrAccessDenied
		}
		return nil, err
	}

	return s.GenerateTokens(ctx, user)
}

// SignOut invalidates the registered refresh token for userID. The access
// token remains valid until its natural expiry; only the refresh path is
// cut off.
func (s *Service) SignOut(ctx context.Context, userID string) error {
	if err := s.registry.Invalidate(ctx, userID); err != nil {
		return err
	}
	s.audit.Emit(ctx, audit.Event{
		Timestamp: time.Now(),
		EventType: audit.EventSignOut,
		SubjectID: userID,
		Success:   true,
	})
	return nil
}
