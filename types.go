package goiam

import "context"

// Role is the closed set of user roles.
type Role string

const (
	// RoleRegular is the default role assigned on sign-up.
	RoleRegular Role = "regular"
	// RoleAdmin is an exported role constant for administrative users.
	RoleAdmin Role = "admin"
)

// Permission names a fine-grained capability stored on the user record.
// The set is open ended; modules consuming goiam define their own values.
type Permission = string

// Principal is the authenticated identity attached to a request after a
// guard strategy succeeds. It is derived from verified token claims, lives
// for one request, and is never persisted.
type Principal struct {
	SubjectID   string
	Email       string
	Role        Role
	Permissions []string
}

// HasPermission reports whether the principal carries the given permission.
// An absent permission list behaves as an empty set.
func (p *Principal) HasPermission(perm Permission) bool {
	for _, have := range p.Permissions {
		if have == perm {
			return true
		}
	}
	return false
}

// TokenPair is the result of sign-in and refresh: two opaque signed strings.
// The caller owns the pair once returned; goiam retains no reference to it.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is the account record goiam reads from and writes to a [UserStore].
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Permissions  []string
}

// UserStore is the persistence capability callers must supply. Save must
// surface unique-constraint violations as an error matching
// [ErrDuplicateKey] (errors.Is); FindByEmail and FindByID must surface
// missing records as [ErrUserNotFound]. Any other failure propagates
// unchanged.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
}

// Hasher is the one-way credential hashing capability. Compare must be
// constant time with respect to the plaintext.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) (bool, error)
}

// APIKeyStore resolves a raw API key to the principal it was issued for.
// A key that does not resolve returns (nil, nil); infrastructure failures
// return an error.
type APIKeyStore interface {
	Verify(ctx context.Context, rawKey string) (*Principal, error)
}
