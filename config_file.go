package goGuard

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by LoadConfigFile after the file is read.
const (
	EnvJWTSecret = "GOGUARD_JWT_SECRET"
	EnvJWTTTL    = "GOGUARD_JWT_TTL"
	EnvRedisAddr = "GOGUARD_REDIS_ADDR"
)

const base64SecretPrefix = "base64:"

// Secret is key material that never prints. In YAML and the environment it
// is either literal text or "base64:" followed by standard base64.
type Secret []byte

// ParseSecret decodes the textual secret form.
func ParseSecret(s string) (Secret, error) {
	if rest, ok := strings.CutPrefix(s, base64SecretPrefix); ok {
		b, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return nil, fmt.Errorf("decode base64 secret: %w", err)
		}
		return Secret(b), nil
	}
	return Secret(s), nil
}

func (s Secret) String() string {
	if len(s) == 0 {
		return ""
	}
	return "[REDACTED]"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Secret) UnmarshalYAML(node *yaml.Node) error {
	var text string
	if err := node.Decode(&text); err != nil {
		return err
	}
	parsed, err := ParseSecret(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML keeps secrets out of dumped configuration.
func (s Secret) MarshalYAML() (any, error) {
	return s.String(), nil
}

// LoadConfigFile reads a YAML configuration on top of [DefaultConfig],
// applies environment overrides and validates the result.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfigFile for in-memory YAML.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from lookup, which has the signature of os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvJWTSecret); ok && v != "" {
		secret, err := ParseSecret(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJWTSecret, err)
		}
		cfg.JWT.Secret = secret
	}
	if v, ok := lookup(EnvJWTTTL); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJWTTTL, err)
		}
		cfg.JWT.AccessTTL = ttl
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		cfg.RateLimit.RedisAddr = v
		cfg.RateLimit.Enabled = true
	}
	return nil
}
