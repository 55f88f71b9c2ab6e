package goGuard

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/password"
	"github.com/MrEthical07/goGuard/rules"
)

// Config is the complete engine configuration. It is copied by
// [Builder.WithConfig] and never mutated after [Builder.Build].
type Config struct {
	JWT       JWTConfig       `yaml:"jwt"`
	Password  PasswordConfig  `yaml:"password"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Audit     AuditConfig     `yaml:"audit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Rules     []RuleConfig    `yaml:"rules"`
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the token codec.
type JWTConfig struct {
	AccessTTL     time.Duration `yaml:"access_ttl"`
	SigningMethod string        `yaml:"signing_method"` // "hs256" (default), "hs384", "hs512"
	Secret        Secret        `yaml:"secret"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	Leeway        time.Duration `yaml:"leeway"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig configures the default password verifier. It is ignored
// when a verifier is supplied through [Builder.WithPasswordVerifier].
type PasswordConfig struct {
	Scheme      string `yaml:"scheme"` // preferred scheme for new hashes: "argon2id" or "bcrypt"
	Memory      uint32 `yaml:"memory"` // in KB
	Time        uint32 `yaml:"time"`
	Parallelism uint8  `yaml:"parallelism"`
	SaltLength  uint32 `yaml:"salt_length"`
	KeyLength   uint32 `yaml:"key_length"`
	BcryptCost  int    `yaml:"bcrypt_cost"`
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds authentication hardening switches.
type SecurityConfig struct {
	// EqualizeUnknownUserTiming runs the password verifier against a dummy
	// hash for unknown users so both failure paths take comparable time.
	// The dummy hash is minted once at Build with Password.Scheme, so timing
	// only matches for stored hashes of that scheme; a directory still on
	// another scheme should be re-hashed (see password.Multi.NeedsUpgrade).
	// A custom verifier without a Hash method gets no dummy hash.
	EqualizeUnknownUserTiming bool `yaml:"equalize_unknown_user_timing"`
	// MaxCredentialBytes bounds username and password length.
	MaxCredentialBytes int `yaml:"max_credential_bytes"`
}

// RateLimitConfig configures the optional Redis login throttle.
type RateLimitConfig struct {
	Enabled               bool          `yaml:"enabled"`
	EnableIPThrottle      bool          `yaml:"enable_ip_throttle"`
	MaxLoginAttempts      int           `yaml:"max_login_attempts"`
	LoginCooldownDuration time.Duration `yaml:"login_cooldown"`
	RedisPrefix           string        `yaml:"redis_prefix"`
	RedisAddr             string        `yaml:"redis_addr"`
}

// AuditConfig controls async audit dispatch.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// RuleConfig is the configuration form of one authorization rule.
//
//	- method: POST
//	  pattern: /students/**
//	  require: hasPermission
//	  values: [STUDENT_WRITE]
type RuleConfig struct {
	Method  string   `yaml:"method"`
	Pattern string   `yaml:"pattern"`
	Require string   `yaml:"require"`
	Values  []string `yaml:"values"`
}

// Rule converts c into a rules.Rule.
func (c RuleConfig) Rule() (rules.Rule, error) {
	req, err := rules.ParseRequirement(c.Require, c.Values)
	if err != nil {
		return rules.Rule{}, err
	}
	return rules.Rule{Method: c.Method, Pattern: c.Pattern, Requirement: req}, nil
}

// DefaultConfig returns the baseline configuration. The secret is empty and
// must be supplied before Build.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     2 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
			Leeway:        0,
		},
		Password: PasswordConfig{
			Scheme:      string(password.SchemeArgon2id),
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			BcryptCost:  10,
		},
		Security: SecurityConfig{
			EqualizeUnknownUserTiming: true,
			MaxCredentialBytes:        1024,
		},
		RateLimit: RateLimitConfig{
			Enabled:               false,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			RedisPrefix:           "gg",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	if cfg.Rules != nil {
		out.Rules = make([]RuleConfig, len(cfg.Rules))
		for i, r := range cfg.Rules {
			out.Rules[i] = r
			out.Rules[i].Values = append([]string(nil), r.Values...)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL < time.Second {
		return errors.New("JWT AccessTTL must be >= 1s")
	}
	if c.JWT.AccessTTL%time.Second != 0 {
		return errors.New("JWT AccessTTL must be a whole number of seconds")
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256, jwt.MethodHS384, jwt.MethodHS512:
	default:
		return errors.New("unsupported JWT signing method")
	}
	if len(c.JWT.Secret) < jwt.MinSecretBytes {
		return fmt.Errorf("JWT Secret must be at least %d bytes", jwt.MinSecretBytes)
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Password
	switch password.Scheme(c.Password.Scheme) {
	case password.SchemeArgon2id, password.SchemeBcrypt:
	default:
		return errors.New("Password Scheme must be 'argon2id' or 'bcrypt'")
	}
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
		return errors.New("Password BcryptCost must be between 4 and 31")
	}

	// Security
	if c.Security.MaxCredentialBytes <= 0 {
		return errors.New("Security MaxCredentialBytes must be > 0")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.LoginCooldownDuration <= 0 {
			return errors.New("RateLimit LoginCooldownDuration must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	// Rules
	if _, err := compileRules(c.Rules); err != nil {
		return err
	}

	return nil
}

func compileRules(cfgs []RuleConfig) (*rules.Table, error) {
	rs := make([]rules.Rule, 0, len(cfgs))
	for i, rc := range cfgs {
		r, err := rc.Rule()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s %s): %w", i, rc.Method, rc.Pattern, err)
		}
		rs = append(rs, r)
	}
	return rules.NewTable(rs...)
}
