package goiam

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig reads configuration from an optional YAML file, a .env file
// when present, and GOIAM_-prefixed environment variables, in increasing
// order of precedence. configFile may be empty.
//
// Environment keys mirror the config tree with underscores, e.g.
// GOIAM_TOKEN_SECRET, GOIAM_REDIS_ADDR, GOIAM_TOKEN_ACCESS_TTL.
func LoadConfig(configFile string) (Config, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return cfg, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("GOIAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it even when
// no config file is present.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("token.secret", cfg.Token.Secret)
	v.SetDefault("token.issuer", cfg.Token.Issuer)
	v.SetDefault("token.audience", cfg.Token.Audience)
	v.SetDefault("token.access_ttl", cfg.Token.AccessTTL)
	v.SetDefault("token.refresh_ttl", cfg.Token.RefreshTTL)
	v.SetDefault("token.leeway", cfg.Token.Leeway)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.prefix", cfg.Redis.Prefix)
	v.SetDefault("password.algorithm", cfg.Password.Algorithm)
	v.SetDefault("password.bcrypt_cost", cfg.Password.BcryptCost)
	v.SetDefault("audit.enabled", cfg.Audit.Enabled)
	v.SetDefault("audit.buffer_size", cfg.Audit.BufferSize)
	v.SetDefault("audit.drop_if_full", cfg.Audit.DropIfFull)
}
