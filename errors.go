package goiam

import "errors"

var (
	// ErrInvalidCredentials is returned by SignIn for both unknown email and
	// wrong password; callers must not be able to tell which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail is returned by SignUp when the user store reports a
	// uniqueness violation for the email.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrInvalidRefreshToken is returned by RefreshTokens for any failure
	// that is not a detected reuse: expired, malformed, unknown subject.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrAccessDenied is returned by RefreshTokens when the presented
	// refresh-token id does not match the registered one: a reuse signal.
	ErrAccessDenied = errors.New("access denied")
	// ErrUnauthorized is returned by the guard chain when every declared
	// strategy failed without producing a more specific error.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned by authorization checks (policies, roles,
	// permissions).
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound is returned by UserStore implementations when a
	// subject id has no user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateKey is the conflict signal UserStore implementations
	// surface (possibly wrapped) on a unique-constraint violation.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrServiceNotReady is returned when a Service method is invoked
	// before all required collaborators were supplied to the Builder.
	ErrServiceNotReady = errors.New("service not initialized")
)
