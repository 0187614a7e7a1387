package goiam

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the process-level configuration for the authentication core.
// It is loaded once at start (see LoadConfig) and immutable thereafter.
type Config struct {
	Token    TokenConfig    `mapstructure:"token"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Password PasswordConfig `mapstructure:"password"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

// TokenConfig is the shared signing configuration used for both issuing and
// verifying tokens.
type TokenConfig struct {
	Secret     string        `mapstructure:"secret" validate:"required,min=16"`
	Issuer     string        `mapstructure:"issuer" validate:"required"`
	Audience   string        `mapstructure:"audience" validate:"required"`
	AccessTTL  time.Duration `mapstructure:"access_ttl" validate:"gt=0"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl" validate:"gt=0"`
	Leeway     time.Duration `mapstructure:"leeway"`
}

// RedisConfig locates the Redis instance backing the refresh-token registry
// and the API key store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Prefix namespaces every key written by this deployment.
	Prefix string `mapstructure:"prefix"`
}

// PasswordConfig selects the credential hashing algorithm.
type PasswordConfig struct {
	Algorithm  string `mapstructure:"algorithm" validate:"oneof=bcrypt argon2"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// AuditConfig controls the security event dispatcher.
type AuditConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size"`
	DropIfFull bool `mapstructure:"drop_if_full"`
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer:     "goiam",
			Audience:   "goiam",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "goiam",
		},
		Password: PasswordConfig{
			Algorithm: "bcrypt",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate checks the configuration for completeness. It is called by
// LoadConfig and by Builder.Build.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
