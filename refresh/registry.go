package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrReuseDetected is the reuse signal: the presented refresh-token id does
// not match the registered one, or the record was already consumed.
var ErrReuseDetected = errors.New("refresh token reuse detected")

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	redeemStatusNotFound int64 = 0
	redeemStatusMismatch int64 = 1
	redeemStatusRedeemed int64 = 2
)

// redeemScript compares the stored refresh-token id against the presented
// one and deletes the record only on an exact match. The read, compare, and
// delete run as one script so two concurrent redemptions of the same id
// resolve to exactly one winner.
const redeemScript = `
local stored = redis.call("GET", KEYS[1])
if not stored then
  return 0
end
if stored ~= ARGV[1] then
  return 1
end
redis.call("DEL", KEYS[1])
return 2
`

var redeemLua = redis.NewScript(redeemScript)

// Registry is the Redis-backed refresh-token id store: one record per user,
// overwritten on every rotation.
type Registry struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRegistry creates a Registry using the given Redis client. prefix sets
// the key namespace.
func NewRegistry(client redis.UniversalClient, prefix string) *Registry {
	if prefix == "" {
		prefix = "rt"
	}
	return &Registry{redis: client, prefix: prefix}
}

func (r *Registry) key(userID string) string {
	return r.prefix + ":" + userID
}

// Insert unconditionally overwrites the record for userID, implicitly
// invalidating any previously issued refresh token. The record expires with
// the refresh token itself.
func (r *Registry) Insert(ctx context.Context, userID, tokenID string, ttl time.Duration) error {
	if err := r.redis.Set(ctx, r.key(userID), tokenID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Validate reports whether tokenID exactly matches the stored id for
// userID. A mismatch or missing record returns ErrReuseDetected so the
// caller can escalate rather than treat it as a plain failure.
//
// Validate does not consume the record; redemption flows must use Redeem,
// which performs the compare and delete atomically.
func (r *Registry) Validate(ctx context.Context, userID, tokenID string) (bool, error) {
	stored, err := r.redis.Get(ctx, r.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, ErrReuseDetected
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if stored != tokenID {
		return false, ErrReuseDetected
	}
	return true, nil
}

// Invalidate deletes the record for userID. Invalidating an absent record
// is not an error.
func (r *Registry) Invalidate(ctx context.Context, userID string) error {
	if err := r.redis.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Redeem atomically consumes the record for userID if and only if tokenID
// matches the stored id. On a mismatch, or when the record was already
// consumed or never existed, it returns ErrReuseDetected. Exactly one of N
// concurrent redemptions of the same valid id succeeds.
func (r *Registry) Redeem(ctx context.Context, userID, tokenID string) error {
	status, err := redeemLua.Run(ctx, r.redis, []string{r.key(userID)}, tokenID).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case redeemStatusRedeemed:
		return nil
	case redeemStatusNotFound, redeemStatusMismatch:
		return ErrReuseDetected
	default:
		return fmt.Errorf("%w: unknown redeem script status %d", ErrRedisUnavailable, status)
	}
}
