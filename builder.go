package goiam

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/goiam-dev/goiam/audit"
	"github.com/goiam-dev/goiam/hashing"
	"github.com/goiam-dev/goiam/refresh"
	"github.com/goiam-dev/goiam/token"
)

// Builder assembles a [Service] from configuration and collaborators.
// Construction is allocation-only; no I/O happens before Build.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	users     UserStore
	hasher    Hasher
	auditSink audit.Sink
	logger    zerolog.Logger

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the refresh-token registry.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the user persistence capability.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithHasher overrides the credential hasher selected by the configuration.
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithAuditSink enables the security event stream, delivering to sink.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	if !b.config.Audit.Enabled {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and wires the Service. A Builder can
// only be used once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrServiceNotReady)
	}
	if b.users == nil {
		return nil, fmt.Errorf("%w: user store is required", ErrServiceNotReady)
	}

	hasher := b.hasher
	if hasher == nil {
		var err error
		if hasher, err = newHasher(b.config.Password); err != nil {
			return nil, err
		}
	}

	codec, err := token.NewCodec(token.Config{
		Secret:   []byte(b.config.Token.Secret),
		Issuer:   b.config.Token.Issuer,
		Audience: b.config.Token.Audience,
		Leeway:   b.config.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	registry := refresh.NewRegistry(b.redis, b.config.Redis.Prefix+":rt")

	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    b.config.Audit.Enabled,
		BufferSize: b.config.Audit.BufferSize,
		DropIfFull: b.config.Audit.DropIfFull,
	}, b.auditSink)

	return &Service{
		users:      b.users,
		hasher:     hasher,
		codec:      codec,
		registry:   registry,
		accessTTL:  b.config.Token.AccessTTL,
		refreshTTL: b.config.Token.RefreshTTL,
		log:        b.logger,
		audit:      dispatcher,
		validate:   validator.New(),
	}, nil
}

func newHasher(cfg PasswordConfig) (Hasher, error) {
	switch cfg.Algorithm {
	case "argon2":
		return hashing.NewArgon2(hashing.DefaultArgon2Config())
	default:
		return hashing.NewBcrypt(cfg.BcryptCost), nil
	}
}
