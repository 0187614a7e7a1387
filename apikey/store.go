// Package apikey issues and verifies long-lived API keys for
// machine-to-machine callers, backed by Redis.
//
// A raw key is "id.secret". Only a SHA-256 digest of the secret is stored;
// the raw key is shown once at generation and cannot be recovered.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	goiam "github.com/goiam-dev/goiam"
)

const secretBytes = 32

// record is the stored shape of an issued key.
type record struct {
	Digest      string   `json:"digest"`
	SubjectID   string   `json:"subject_id"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// Store is a Redis-backed [goiam.APIKeyStore].
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store. prefix namespaces the keys.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "apikey"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(id string) string {
	return s.prefix + ":" + id
}

// Generate issues a new API key for principal, valid for ttl (zero means
// no expiry), and returns the raw key. The raw key cannot be retrieved
// again.
func (s *Store) Generate(ctx context.Context, principal *goiam.Principal, ttl time.Duration) (string, error) {
	if principal == nil || principal.SubjectID == "" {
		return "", errors.New("apikey: principal with subject id required")
	}

	secret := make([]byte, secretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("apikey: generate secret: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(secret)

	id := uuid.NewString()
	digest := sha256.Sum256([]byte(encoded))

	data, err := json.Marshal(record{
		Digest:      hex.EncodeToString(digest[:]),
		SubjectID:   principal.SubjectID,
		Email:       principal.Email,
		Role:        string(principal.Role),
		Permissions: principal.Permissions,
	})
	if err != nil {
		return "", fmt.Errorf("apikey: marshal record: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(id), data, ttl).Err(); err != nil {
		return "", fmt.Errorf("apikey: store record: %w", err)
	}

	return id + "." + encoded, nil
}

// Verify implements [goiam.APIKeyStore]. A malformed, unknown, or
// tampered key resolves to (nil, nil); only infrastructure failures
// return an error.
func (s *Store) Verify(ctx context.Context, rawKey string) (*goiam.Principal, error) {
	id, secret, ok := strings.Cut(rawKey, ".")
	if !ok || id == "" || secret == "" {
		return nil, nil
	}

	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("apikey: load record: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("apikey: decode record: %w", err)
	}

	digest := sha256.Sum256([]byte(secret))
	stored, err := hex.DecodeString(rec.Digest)
	if err != nil || subtle.ConstantTimeCompare(digest[:], stored) != 1 {
		return nil, nil
	}

	return &goiam.Principal{
		SubjectID:   rec.SubjectID,
		Email:       rec.Email,
		Role:        goiam.Role(rec.Role),
		Permissions: rec.Permissions,
	}, nil
}

// Revoke deletes the key with the given id. Revoking an unknown id is not
// an error.
func (s *Store) Revoke(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("apikey: revoke: %w", err)
	}
	return nil
}
